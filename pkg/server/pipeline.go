package server

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/cache"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/llm"
	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/safety"
	"github.com/jg-phare/nudge/pkg/sanitize"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

// processCompletion runs the request pipeline: session update, cache
// lookups around gather+sanitize, the LLM call, the safety screen, and the
// cache insert. Every stage may short-circuit to an error response.
func (s *Server) processCompletion(ctx context.Context, req *protocol.CompletionRequest, start time.Time) *protocol.CompletionResponse {
	cfg := s.cfg.Load()
	requestID := protocol.NewRequestID()
	mode := shellmode.Resolve(req.ShellMode, req.SessionID)

	s.sessions.Update(req.SessionID, req.Cwd)

	key := cache.BuildKey(req, mode, cfg.Cache.PrefixBytes)

	// With a declared git state the key is already stable, so a hit skips
	// the whole gather.
	if req.GitState != "" {
		if resp := s.cacheHit(key, requestID, start); resp != nil {
			return resp
		}
	}

	gatherStart := time.Now()
	data := s.gatherer.Load().Gather(ctx, req, cfg)
	log.Debug("context gathered",
		zap.Duration("elapsed", time.Since(gatherStart)),
		zap.Int("history", len(data.History)),
		zap.Int("files", len(data.Files)),
		zap.Int("tokens", data.EstimatedTokens))

	sanitizedCount := 0
	if cfg.Privacy.SanitizeEnabled {
		var events []sanitize.Event
		data, events = sanitize.Sanitize(data, cfg.Privacy.CustomPatterns)
		sanitizedCount = len(events)
	}

	if resp := s.cacheHit(key, requestID, start); resp != nil {
		return resp
	}

	text, err := s.complete(ctx, req.Buffer, mode, data, cfg)
	if err != nil {
		info := categorize(err)
		log.Warn("completion failed", zap.String("code", string(info.Code)), zap.String("message", info.Message))
		s.cache.PutNegative(key, info, cache.NegativeTTL(cfg.Cache))
		return protocol.NewErrorResponse(requestID, info, time.Since(start))
	}

	suggestion := protocol.Suggestion{Text: text}
	if cfg.Privacy.BlockDangerous {
		if w := safety.Check(text, cfg.Privacy.CustomBlocked); w != nil {
			suggestion.Warning = w
		}
	}

	s.cache.Put(key, suggestion, cache.TTLFor(mode, cfg.Cache))

	resp := protocol.NewSuccessResponse(requestID, []protocol.Suggestion{suggestion}, time.Since(start))
	resp.ContextSummary = summarize(data, sanitizedCount)
	return resp
}

// cacheHit converts a fresh cache entry into a response, nil on miss.
func (s *Server) cacheHit(key, requestID string, start time.Time) *protocol.CompletionResponse {
	lookup, ok := s.cache.Get(key)
	if !ok {
		return nil
	}
	if lookup.Stale {
		log.Debug("serving stale cache entry", zap.String("key", key))
	}

	if lookup.Entry.Failure != nil {
		return protocol.NewErrorResponse(requestID, *lookup.Entry.Failure, time.Since(start))
	}
	return protocol.NewSuccessResponse(requestID,
		[]protocol.Suggestion{*lookup.Entry.Suggestion}, time.Since(start))
}

// categorize renders a pipeline error for the wire.
func categorize(err error) protocol.ErrorInfo {
	if apiErr, ok := err.(*llm.APIError); ok {
		return apiErr.Info()
	}
	return protocol.InternalError(err.Error())
}

func summarize(d *nudgectx.Data, sanitizedCount int) *protocol.ContextSummary {
	historyCount := len(d.History)
	filesCount := len(d.Files)
	tokens := d.EstimatedTokens
	truncated := d.Truncated
	return &protocol.ContextSummary{
		HistoryCount:   &historyCount,
		FilesCount:     &filesCount,
		PluginsUsed:    d.PluginIDs(),
		TotalTokens:    &tokens,
		Truncated:      &truncated,
		SanitizedCount: &sanitizedCount,
	}
}

// processDiagnosis serves the error-diagnosis path sharing the socket.
func (s *Server) processDiagnosis(ctx context.Context, line []byte, start time.Time) *protocol.DiagnosisResponse {
	cfg := s.cfg.Load()
	requestID := protocol.NewRequestID()

	var req protocol.DiagnosisRequest
	if err := json.Unmarshal(line, &req); err != nil {
		info := protocol.InternalError("invalid diagnosis request: " + err.Error())
		return &protocol.DiagnosisResponse{RequestID: requestID, Error: &info}
	}

	if !cfg.Diagnosis.Enabled {
		info := protocol.ConfigError("diagnosis is disabled; enable diagnosis.enabled in config")
		return &protocol.DiagnosisResponse{
			RequestID:        requestID,
			Error:            &info,
			ProcessingTimeMs: uint64(time.Since(start).Milliseconds()),
		}
	}

	s.sessions.Update(req.SessionID, req.Cwd)

	gatherReq := &protocol.CompletionRequest{
		SessionID: req.SessionID,
		Buffer:    req.Command,
		CursorPos: len(req.Command),
		Cwd:       req.Cwd,
	}
	data := s.gatherer.Load().Gather(ctx, gatherReq, cfg)
	if cfg.Privacy.SanitizeEnabled {
		data, _ = sanitize.Sanitize(data, cfg.Privacy.CustomPatterns)
		req.Stderr, _ = sanitize.SanitizeString(req.Stderr, cfg.Privacy.CustomPatterns)
	}

	diagnosis, suggestion, err := s.diagnose(ctx, &req, data, cfg)
	if err != nil {
		info := categorize(err)
		return &protocol.DiagnosisResponse{
			RequestID:        requestID,
			Error:            &info,
			ProcessingTimeMs: uint64(time.Since(start).Milliseconds()),
		}
	}

	return &protocol.DiagnosisResponse{
		RequestID:        requestID,
		Diagnosis:        diagnosis,
		Suggestion:       suggestion,
		ProcessingTimeMs: uint64(time.Since(start).Milliseconds()),
	}
}
