// Package client implements the shell-facing side: the IPC round trip to
// the daemon and the plain/list/JSON output renderings the integration
// scripts consume.
package client

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jg-phare/nudge/pkg/paths"
	"github.com/jg-phare/nudge/pkg/protocol"
)

const (
	connectTimeout = 1 * time.Second
	readTimeout    = 10 * time.Second
)

// Complete sends a completion request to the daemon. Transport problems are
// folded into a normal error response so the shell integration has a single
// shape to handle.
func Complete(req *protocol.CompletionRequest) (*protocol.CompletionResponse, error) {
	reply, errInfo := roundTrip(req)
	if errInfo != nil {
		return protocol.NewErrorResponse("", *errInfo, 0), nil
	}

	var resp protocol.CompletionResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("client: decode response: %w", err)
	}
	return &resp, nil
}

// Diagnose sends a diagnosis request to the daemon.
func Diagnose(req *protocol.DiagnosisRequest) (*protocol.DiagnosisResponse, error) {
	reply, errInfo := roundTrip(req)
	if errInfo != nil {
		return &protocol.DiagnosisResponse{Error: errInfo}, nil
	}

	var resp protocol.DiagnosisResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("client: decode response: %w", err)
	}
	return &resp, nil
}

// roundTrip writes one JSON line and reads one back.
func roundTrip(payload any) ([]byte, *protocol.ErrorInfo) {
	conn, errInfo := dialDaemon(paths.SocketPath(), connectTimeout)
	if errInfo != nil {
		return nil, errInfo
	}
	defer conn.Close()

	line, err := json.Marshal(payload)
	if err != nil {
		info := protocol.InternalError("encode request: " + err.Error())
		return nil, &info
	}
	line = append(line, '\n')

	conn.SetDeadline(time.Now().Add(readTimeout))
	if _, err := conn.Write(line); err != nil {
		info := protocol.LLMUnavailable("failed to send request to daemon: " + err.Error())
		return nil, &info
	}

	reply, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		info := protocol.LLMTimeout("no response from daemon: " + err.Error())
		return nil, &info
	}
	return reply, nil
}
