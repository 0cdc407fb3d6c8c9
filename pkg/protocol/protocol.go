// Package protocol defines the wire types exchanged between the shell
// clients and the daemon. One JSON object per direction, newline-terminated,
// UTF-8. Unknown fields are ignored on decode so older daemons tolerate
// newer clients.
package protocol

import (
	"time"

	"github.com/google/uuid"
)

// MaxBufferBytes is the largest command-line buffer a request may carry.
// Larger requests are rejected with an internal_error response.
const MaxBufferBytes = 10_000

// CompletionRequest is sent from a shell client to the daemon.
type CompletionRequest struct {
	// SessionID is opaque; by convention it is prefixed with the shell name
	// ("bash-", "zsh-", "pwsh-", "cmd-") which the daemon uses as a fallback
	// for shell detection.
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	// Buffer is the raw command line at the moment of the request.
	Buffer string `json:"buffer"`
	// CursorPos is a byte offset into Buffer; clamped to len(Buffer) before use.
	CursorPos int    `json:"cursor_pos"`
	Cwd       string `json:"cwd"`
	// LastExitCode is the exit status of the most recent command, when known.
	LastExitCode *int `json:"last_exit_code,omitempty"`
	// GitRoot, when set by the integration layer, replaces Cwd in the cache key.
	GitRoot string `json:"git_root,omitempty"`
	// GitState is an opaque digest of the repository state.
	GitState string `json:"git_state,omitempty"`
	// ShellMode is an explicit mode hint; see the shellmode package.
	ShellMode string `json:"shell_mode,omitempty"`
	// TimeBucket separates auto-mode cache entries across coarse time windows.
	TimeBucket uint64 `json:"time_bucket,omitempty"`
}

// ClampedCursor returns the cursor position bounded to the buffer length.
func (r *CompletionRequest) ClampedCursor() int {
	if r.CursorPos > len(r.Buffer) {
		return len(r.Buffer)
	}
	if r.CursorPos < 0 {
		return 0
	}
	return r.CursorPos
}

// NewCompletionRequest builds a request stamped with the current time.
func NewCompletionRequest(sessionID, buffer string, cursorPos int, cwd string, lastExitCode *int) *CompletionRequest {
	return &CompletionRequest{
		SessionID:    sessionID,
		Timestamp:    time.Now().UTC(),
		Buffer:       buffer,
		CursorPos:    cursorPos,
		Cwd:          cwd,
		LastExitCode: lastExitCode,
	}
}

// CompletionResponse is sent from the daemon back to the client. Exactly one
// of Suggestions (non-empty) or Error is populated.
type CompletionResponse struct {
	RequestID        string          `json:"request_id"`
	Suggestions      []Suggestion    `json:"suggestions"`
	ProcessingTimeMs uint64          `json:"processing_time_ms"`
	Error            *ErrorInfo      `json:"error,omitempty"`
	ContextSummary   *ContextSummary `json:"context_summary,omitempty"`
}

// NewSuccessResponse builds a response carrying suggestions.
func NewSuccessResponse(requestID string, suggestions []Suggestion, elapsed time.Duration) *CompletionResponse {
	return &CompletionResponse{
		RequestID:        requestID,
		Suggestions:      suggestions,
		ProcessingTimeMs: uint64(elapsed.Milliseconds()),
	}
}

// NewErrorResponse builds a response carrying an error and no suggestions.
func NewErrorResponse(requestID string, errInfo ErrorInfo, elapsed time.Duration) *CompletionResponse {
	return &CompletionResponse{
		RequestID:        requestID,
		Suggestions:      []Suggestion{},
		ProcessingTimeMs: uint64(elapsed.Milliseconds()),
		Error:            &errInfo,
	}
}

// NewRequestID returns a fresh correlation id.
func NewRequestID() string {
	return uuid.NewString()
}

// Suggestion is a single completion candidate.
type Suggestion struct {
	Text string `json:"text"`
	// Confidence is in [0, 1] when present.
	Confidence *float64 `json:"confidence,omitempty"`
	Warning    *Warning `json:"warning,omitempty"`
}

// Warning flags a suggestion the safety screen matched. The suggestion is
// still delivered; rendering the warning is the integration layer's job.
type Warning struct {
	Kind    WarningKind `json:"type"`
	Message string      `json:"message"`
}

// WarningKind categorizes a safety warning.
type WarningKind string

const (
	WarnDangerous            WarningKind = "dangerous"
	WarnIrreversible         WarningKind = "irreversible"
	WarnRequiresConfirmation WarningKind = "requires_confirmation"
)

// DangerousWarning builds a dangerous-command warning.
func DangerousWarning(message string) *Warning {
	return &Warning{Kind: WarnDangerous, Message: message}
}

// ErrorCode identifies a failure class on the wire.
type ErrorCode string

const (
	ErrDaemonBusy     ErrorCode = "daemon_busy"
	ErrLLMUnavailable ErrorCode = "llm_unavailable"
	ErrLLMTimeout     ErrorCode = "llm_timeout"
	ErrConfig         ErrorCode = "config_error"
	ErrInternal       ErrorCode = "internal_error"
)

// ErrorInfo describes a pipeline failure. Recoverable hints that the shell
// integration may retry silently.
type ErrorInfo struct {
	Code        ErrorCode `json:"code"`
	Message     string    `json:"message"`
	Recoverable bool      `json:"recoverable"`
}

// LLMUnavailable builds a recoverable llm_unavailable error.
func LLMUnavailable(message string) ErrorInfo {
	return ErrorInfo{Code: ErrLLMUnavailable, Message: message, Recoverable: true}
}

// LLMTimeout builds the recoverable timeout error.
func LLMTimeout(message string) ErrorInfo {
	return ErrorInfo{Code: ErrLLMTimeout, Message: message, Recoverable: true}
}

// InternalError builds a non-recoverable internal error.
func InternalError(message string) ErrorInfo {
	return ErrorInfo{Code: ErrInternal, Message: message, Recoverable: false}
}

// ConfigError builds a non-recoverable configuration error.
func ConfigError(message string) ErrorInfo {
	return ErrorInfo{Code: ErrConfig, Message: message, Recoverable: false}
}

// ContextSummary reports what fed the completion, for debugging.
type ContextSummary struct {
	HistoryCount   *int     `json:"history_count,omitempty"`
	FilesCount     *int     `json:"files_count,omitempty"`
	PluginsUsed    []string `json:"plugins_used,omitempty"`
	TotalTokens    *int     `json:"total_tokens,omitempty"`
	Truncated      *bool    `json:"truncated,omitempty"`
	SanitizedCount *int     `json:"sanitized_count,omitempty"`
}

// RequestKind discriminates request objects sharing the socket.
type RequestKind string

const (
	// KindCompletion is the default when a request carries no type field.
	KindCompletion RequestKind = "completion"
	KindDiagnosis  RequestKind = "diagnosis"
)

// RequestEnvelope carries just enough to route an incoming line.
type RequestEnvelope struct {
	Type RequestKind `json:"type,omitempty"`
}

// DiagnosisRequest asks the daemon to explain a failed command.
type DiagnosisRequest struct {
	Type      RequestKind `json:"type"`
	SessionID string      `json:"session_id"`
	Timestamp time.Time   `json:"timestamp"`
	Command   string      `json:"command"`
	ExitCode  int         `json:"exit_code"`
	Cwd       string      `json:"cwd"`
	// Stderr is the captured error output, truncated by the client.
	Stderr string `json:"stderr,omitempty"`
}

// NewDiagnosisRequest builds a diagnosis request stamped with the current time.
func NewDiagnosisRequest(sessionID, command string, exitCode int, cwd string) *DiagnosisRequest {
	return &DiagnosisRequest{
		Type:      KindDiagnosis,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Command:   command,
		ExitCode:  exitCode,
		Cwd:       cwd,
	}
}

// DiagnosisResponse carries the model's explanation of a failure.
type DiagnosisResponse struct {
	RequestID        string     `json:"request_id"`
	Diagnosis        string     `json:"diagnosis,omitempty"`
	Suggestion       string     `json:"suggestion,omitempty"`
	ProcessingTimeMs uint64     `json:"processing_time_ms"`
	Error            *ErrorInfo `json:"error,omitempty"`
}
