package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"

	"github.com/jg-phare/nudge/pkg/config"
	"github.com/jg-phare/nudge/pkg/protocol"
)

// APIError is a categorized completion failure. Every category maps onto a
// wire error code with a recoverable hint; the message names the configured
// endpoint, model, or key variable so the failure is actionable.
type APIError struct {
	Code    protocol.ErrorCode
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm: %s: %s", e.Code, e.Message)
}

// Info renders the error for the wire.
func (e *APIError) Info() protocol.ErrorInfo {
	return protocol.ErrorInfo{Code: e.Code, Message: e.Message, Recoverable: true}
}

// categorizeTransport maps a transport-level error from the HTTP round trip.
func categorizeTransport(err error, cfg *config.Config) *APIError {
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &netErr) && netErr.Timeout():
		return &APIError{
			Code: protocol.ErrLLMTimeout,
			Message: fmt.Sprintf(
				"LLM request timed out after %dms; the model may be overloaded or model.timeout_ms too short",
				cfg.Model.TimeoutMs),
		}
	case errors.Is(err, syscall.ECONNREFUSED):
		return &APIError{
			Code: protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf(
				"cannot connect to LLM endpoint %s; ensure the server is running", cfg.Model.Endpoint),
		}
	default:
		return &APIError{
			Code:    protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf("LLM request to %s failed: %v", cfg.Model.Endpoint, err),
		}
	}
}

// categorizeStatus maps a non-2xx HTTP status.
func categorizeStatus(status int, body string, cfg *config.Config) *APIError {
	switch status {
	case 401, 403:
		keyEnv := cfg.Model.APIKeyEnv
		if keyEnv == "" {
			keyEnv = "(not configured)"
		}
		return &APIError{
			Code:    protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf("LLM authentication failed; check your API key environment variable: %s", keyEnv),
		}
	case 404:
		return &APIError{
			Code: protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf("model %q not found at endpoint %q; check model name and endpoint configuration",
				cfg.Model.ModelName, cfg.Model.Endpoint),
		}
	case 429:
		return &APIError{
			Code:    protocol.ErrLLMUnavailable,
			Message: "rate limit exceeded; try again later or use a local model",
		}
	default:
		return &APIError{
			Code:    protocol.ErrLLMUnavailable,
			Message: fmt.Sprintf("LLM request failed with status %d: %s", status, body),
		}
	}
}
