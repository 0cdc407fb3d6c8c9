package protocol

import (
	"encoding/json"
	"testing"
	"time"
)

func TestClampedCursor(t *testing.T) {
	tests := []struct {
		name   string
		buffer string
		cursor int
		want   int
	}{
		{"within bounds", "git st", 4, 4},
		{"at end", "git st", 6, 6},
		{"past end", "git st", 99, 6},
		{"negative", "git st", -1, 0},
		{"empty buffer", "", 3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &CompletionRequest{Buffer: tt.buffer, CursorPos: tt.cursor}
			if got := req.ClampedCursor(); got != tt.want {
				t.Errorf("ClampedCursor() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResponseExclusivity(t *testing.T) {
	ok := NewSuccessResponse("id", []Suggestion{{Text: "git status"}}, 5*time.Millisecond)
	if ok.Error != nil || len(ok.Suggestions) == 0 {
		t.Errorf("success response: suggestions=%d error=%v", len(ok.Suggestions), ok.Error)
	}

	bad := NewErrorResponse("id", InternalError("boom"), time.Millisecond)
	if bad.Error == nil || len(bad.Suggestions) != 0 {
		t.Errorf("error response: suggestions=%d error=%v", len(bad.Suggestions), bad.Error)
	}
}

func TestDecodeIgnoresUnknownFields(t *testing.T) {
	line := `{"session_id":"bash-1","buffer":"git st","cursor_pos":6,"cwd":"/tmp","future_field":true}`

	var req CompletionRequest
	if err := json.Unmarshal([]byte(line), &req); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if req.SessionID != "bash-1" || req.Buffer != "git st" {
		t.Errorf("decoded %+v", req)
	}
}

func TestErrorResponseOmitsEmptyOptionals(t *testing.T) {
	resp := NewErrorResponse("id", LLMTimeout("timed out"), 10*time.Millisecond)

	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if _, ok := m["context_summary"]; ok {
		t.Error("context_summary should be omitted when nil")
	}
	errObj := m["error"].(map[string]any)
	if errObj["code"] != "llm_timeout" || errObj["recoverable"] != true {
		t.Errorf("error object = %v", errObj)
	}
}

func TestRequestEnvelopeRouting(t *testing.T) {
	var env RequestEnvelope
	if err := json.Unmarshal([]byte(`{"type":"diagnosis","command":"gti status"}`), &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Type != KindDiagnosis {
		t.Errorf("Type = %q, want diagnosis", env.Type)
	}

	env = RequestEnvelope{}
	if err := json.Unmarshal([]byte(`{"session_id":"bash-1","buffer":"ls"}`), &env); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if env.Type != "" {
		t.Errorf("Type = %q, want empty for completion requests", env.Type)
	}
}

func TestNewRequestIDUnique(t *testing.T) {
	if NewRequestID() == NewRequestID() {
		t.Error("consecutive request ids collided")
	}
}
