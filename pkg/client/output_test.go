package client

import (
	"strings"
	"testing"
	"time"

	"github.com/jg-phare/nudge/pkg/protocol"
)

func suggestionResponse(s ...protocol.Suggestion) *protocol.CompletionResponse {
	return protocol.NewSuccessResponse("req-1", s, 5*time.Millisecond)
}

func TestBuildPlainOutput(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{Text: "git status"})
	if got := BuildPlainOutput(resp); got != "git status" {
		t.Errorf("BuildPlainOutput = %q", got)
	}
}

func TestBuildPlainOutputWarning(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{
		Text:    "rm -rf /",
		Warning: protocol.DangerousWarning("danger"),
	})
	if got := BuildPlainOutput(resp); got != "NUDGE_WARNING: danger" {
		t.Errorf("BuildPlainOutput = %q", got)
	}
}

func TestBuildPlainOutputEmptyOnError(t *testing.T) {
	resp := protocol.NewErrorResponse("req-1", protocol.LLMTimeout("timed out"), time.Millisecond)
	if got := BuildPlainOutput(resp); got != "" {
		t.Errorf("plain output on error should keep the prompt clean, got %q", got)
	}
}

func TestBuildListOutputPrefixCompletion(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{Text: "git status"})
	got := BuildListOutput(resp, "git st")
	want := "low\tgit status\t\tprefix completion\t+atus\n"
	if got != want {
		t.Errorf("BuildListOutput = %q, want %q", got, want)
	}
}

func TestBuildListOutputHighRisk(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{
		Text:    "rm -rf /",
		Warning: protocol.DangerousWarning("root deletion"),
	})
	got := BuildListOutput(resp, "rm -r")
	if !strings.HasPrefix(got, "high\trm -rf /\troot deletion\tsafety check flagged\t") {
		t.Errorf("BuildListOutput = %q", got)
	}
}

func TestBuildListOutputRewriteDiff(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{Text: "git push origin main"})
	got := BuildListOutput(resp, "git puhs")
	if !strings.Contains(got, "~ git puhs -> git push origin main") {
		t.Errorf("BuildListOutput = %q, want rewrite diff", got)
	}
	if !strings.Contains(got, "context rewrite") {
		t.Errorf("BuildListOutput = %q, want context rewrite why", got)
	}
}

func TestBuildListOutputSanitizesFields(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{
		Text:    "echo a\tb\nc",
		Warning: protocol.DangerousWarning("line1\nline2"),
	})
	got := BuildListOutput(resp, "echo")

	lines := strings.Split(strings.TrimSuffix(got, "\n"), "\n")
	if len(lines) != 1 {
		t.Fatalf("embedded newlines leaked into rows: %q", got)
	}
	if cols := strings.Split(lines[0], "\t"); len(cols) != 5 {
		t.Errorf("row has %d columns, want 5: %q", len(cols), lines[0])
	}
}

func TestBuildListOutputEmptyOnError(t *testing.T) {
	resp := protocol.NewErrorResponse("req-1", protocol.LLMTimeout("x"), time.Millisecond)
	if got := BuildListOutput(resp, "git st"); got != "" {
		t.Errorf("list output on error should emit no rows, got %q", got)
	}
}

func TestBuildListOutputExactExtensionDiff(t *testing.T) {
	resp := suggestionResponse(protocol.Suggestion{Text: "git st"})
	got := BuildListOutput(resp, "git st")
	if !strings.Contains(got, "+<none>") {
		t.Errorf("BuildListOutput = %q, want +<none> for identical suggestion", got)
	}
}

func TestBuildJSONOutputCarriesError(t *testing.T) {
	resp := protocol.NewErrorResponse("req-1", protocol.LLMTimeout("timed out"), time.Millisecond)
	got, err := BuildJSONOutput(resp)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, `"llm_timeout"`) || !strings.Contains(got, `"recoverable": true`) {
		t.Errorf("BuildJSONOutput = %s", got)
	}
}
