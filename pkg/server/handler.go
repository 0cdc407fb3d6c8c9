package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/protocol"
)

const (
	// maxLineBytes bounds one request line. The buffer itself is capped at
	// protocol.MaxBufferBytes; the rest is JSON overhead headroom.
	maxLineBytes = 1 << 20
	// initialLineBytes is the scanner's starting buffer.
	initialLineBytes = 64 * 1024
)

// handleConn serves one request/response exchange and closes. Any panic in
// the pipeline is caught here and rendered as an internal error; a handler
// must never take the daemon down.
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	var reply any
	defer func() {
		if r := recover(); r != nil {
			log.Error("pipeline panic", zap.Any("panic", r))
			writeLine(conn, protocol.NewErrorResponse(
				protocol.NewRequestID(),
				protocol.InternalError(fmt.Sprintf("internal panic: %v", r)),
				0,
			))
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, initialLineBytes), maxLineBytes)

	if !scanner.Scan() {
		err := scanner.Err()
		if err == nil {
			// EOF before any line; nothing to answer.
			return
		}
		writeLine(conn, protocol.NewErrorResponse(
			protocol.NewRequestID(),
			protocol.InternalError(fmt.Sprintf("read error: %v", err)),
			0,
		))
		return
	}
	line := scanner.Bytes()
	start := time.Now()

	var env protocol.RequestEnvelope
	if err := json.Unmarshal(line, &env); err != nil {
		writeLine(conn, protocol.NewErrorResponse(
			protocol.NewRequestID(),
			protocol.InternalError(fmt.Sprintf(
				"invalid request format, expected JSON with session_id, buffer, cursor_pos, cwd fields: %v", err)),
			time.Since(start),
		))
		return
	}

	switch env.Type {
	case protocol.KindDiagnosis:
		reply = s.processDiagnosis(ctx, line, start)
	default:
		reply = s.processCompletionLine(ctx, line, start)
	}

	writeLine(conn, reply)
}

// processCompletionLine decodes and validates a completion request before
// handing it to the pipeline.
func (s *Server) processCompletionLine(ctx context.Context, line []byte, start time.Time) *protocol.CompletionResponse {
	var req protocol.CompletionRequest
	if err := json.Unmarshal(line, &req); err != nil {
		return protocol.NewErrorResponse(
			protocol.NewRequestID(),
			protocol.InternalError(fmt.Sprintf(
				"invalid request format, expected JSON with session_id, buffer, cursor_pos, cwd fields: %v", err)),
			time.Since(start),
		)
	}

	if len(req.Buffer) > protocol.MaxBufferBytes {
		log.Warn("buffer too large", zap.Int("bytes", len(req.Buffer)))
		return protocol.NewErrorResponse(
			protocol.NewRequestID(),
			protocol.InternalError(fmt.Sprintf(
				"command buffer exceeds maximum size (%d bytes)", protocol.MaxBufferBytes)),
			time.Since(start),
		)
	}

	return s.processCompletion(ctx, &req, start)
}

// writeLine serializes v as one newline-terminated JSON object.
func writeLine(conn net.Conn, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error("encode response failed", zap.Error(err))
		return
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		log.Debug("client went away before the response", zap.Error(err))
	}
}
