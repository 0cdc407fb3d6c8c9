package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jg-phare/nudge/pkg/config"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/plugins"
	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

func chatStub(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream must be false")
		}
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": reply}},
			},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func stubConfig(endpoint string) *config.Config {
	cfg := config.Default()
	cfg.Model.Endpoint = endpoint
	return cfg
}

func TestCompleteRoundTrip(t *testing.T) {
	srv := chatStub(t, "git status")
	cfg := stubConfig(srv.URL)

	got, err := Complete(context.Background(), "git st", shellmode.BashInline, &nudgectx.Data{}, cfg)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "git status" {
		t.Errorf("Complete = %q", got)
	}
}

func TestCompleteSendsBearerKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{{"message": map[string]any{"content": "ls"}}},
		})
	}))
	defer srv.Close()

	cfg := stubConfig(srv.URL)
	cfg.Model.APIKey = "sk-test"
	if _, err := Complete(context.Background(), "l", shellmode.BashInline, &nudgectx.Data{}, cfg); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if gotAuth != "Bearer sk-test" {
		t.Errorf("Authorization = %q", gotAuth)
	}
}

func TestCompleteTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	cfg := stubConfig(srv.URL)
	cfg.Model.TimeoutMs = 50

	_, err := Complete(context.Background(), "git st", shellmode.BashInline, &nudgectx.Data{}, cfg)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != protocol.ErrLLMTimeout {
		t.Errorf("Code = %v, want llm_timeout", apiErr.Code)
	}
	if !apiErr.Info().Recoverable {
		t.Error("timeout should be recoverable")
	}
}

func TestCompleteConnectionRefused(t *testing.T) {
	cfg := stubConfig("http://127.0.0.1:1")

	_, err := Complete(context.Background(), "ls", shellmode.BashInline, &nudgectx.Data{}, cfg)
	apiErr, ok := err.(*APIError)
	if !ok {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.Code != protocol.ErrLLMUnavailable {
		t.Errorf("Code = %v, want llm_unavailable", apiErr.Code)
	}
}

func TestCategorizeStatus(t *testing.T) {
	cfg := config.Default()
	cfg.Model.APIKeyEnv = "MY_KEY_VAR"

	tests := []struct {
		status  int
		code    protocol.ErrorCode
		mention string
	}{
		{401, protocol.ErrLLMUnavailable, "MY_KEY_VAR"},
		{403, protocol.ErrLLMUnavailable, "MY_KEY_VAR"},
		{404, protocol.ErrLLMUnavailable, cfg.Model.ModelName},
		{429, protocol.ErrLLMUnavailable, "rate limit"},
		{500, protocol.ErrLLMUnavailable, "500"},
	}
	for _, tt := range tests {
		e := categorizeStatus(tt.status, "body", cfg)
		if e.Code != tt.code {
			t.Errorf("status %d: Code = %v", tt.status, e.Code)
		}
		if !strings.Contains(e.Message, tt.mention) {
			t.Errorf("status %d: message %q should mention %q", tt.status, e.Message, tt.mention)
		}
	}
}

func TestCleanCompletion(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		buffer string
		want   string
	}{
		{"plain", "git status", "git st", "git status"},
		{"surrounding whitespace", "  git status \n", "git st", "git status"},
		{"fenced block", "```bash\ngit status\n```", "git st", "git status"},
		{"fenced multi-line keeps first", "```\ngit status\ngit push\n```", "git st", "git status"},
		{"multi-line keeps first", "git status\nand this explains why", "git st", "git status"},
		{"empty returns buffer", "", "git st", "git st"},
		{"whitespace only returns buffer", "  \n \t", "git st", "git st"},
		{"empty fence returns buffer", "```\n```", "git st", "git st"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanCompletion(tt.input, tt.buffer); got != tt.want {
				t.Errorf("CleanCompletion = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCleanCompletionIdempotent(t *testing.T) {
	inputs := []string{"```bash\ngit status\n```", "  git push\nextra", "plain", ""}
	for _, input := range inputs {
		once := CleanCompletion(input, "buf")
		twice := CleanCompletion(once, "buf")
		if once != twice {
			t.Errorf("not idempotent for %q: %q vs %q", input, once, twice)
		}
	}
}

func TestBuildUserPromptSectionOrderAndOmission(t *testing.T) {
	exit := 1
	d := &nudgectx.Data{
		History:         []string{"git status"},
		Files:           []string{"main.go", "go.mod"},
		LastExitCode:    &exit,
		SimilarCommands: []string{"git stash"},
		Git:             &plugins.GitContext{Branch: "main", Status: plugins.GitDirty},
		Plugins: map[string]*plugins.Data{
			"node": {DisplayName: "Node.js", Fields: map[string]any{
				"package_manager": "pnpm",
				"is_monorepo":     false,
			}},
			"docker": {DisplayName: "Docker", Fields: map[string]any{
				"daemon_available": true,
			}},
		},
		System: nudgectx.SystemInfo{OSType: "linux", OSVersion: "6.1", Arch: "amd64", ShellType: "bash", Username: "dev"},
	}

	prompt := BuildUserPrompt("git st", shellmode.BashInline, d)

	sections := []string{
		"## System Environment",
		"## Recent Commands",
		"## Similar Commands from History",
		"## Current Directory Files",
		"## Last Command Exit Code: 1",
		"## Git Status",
		"## Docker Context",
		"## Node.js Context",
		"## Command to Complete",
	}
	last := -1
	for _, s := range sections {
		i := strings.Index(prompt, s)
		if i < 0 {
			t.Fatalf("section %q missing from prompt:\n%s", s, prompt)
		}
		if i < last {
			t.Errorf("section %q out of order", s)
		}
		last = i
	}

	if !strings.Contains(prompt, "Package Manager: pnpm") {
		t.Error("snake_case keys should be humanized")
	}
	if !strings.Contains(prompt, "Is Monorepo: No") {
		t.Error("booleans should render Yes/No")
	}
	if !strings.HasSuffix(prompt, shellmode.BashInline.ResponseContract()) {
		t.Error("prompt should end with the mode contract")
	}
}

func TestBuildUserPromptOmitsEmptySections(t *testing.T) {
	prompt := BuildUserPrompt("ls", shellmode.BashInline, &nudgectx.Data{})

	for _, s := range []string{"## Recent Commands", "## Git Status", "## Current Directory Files", "## System Environment"} {
		if strings.Contains(prompt, s) {
			t.Errorf("empty section %q should be omitted", s)
		}
	}
	if !strings.Contains(prompt, "## Command to Complete") {
		t.Error("command section is mandatory")
	}
	if !strings.Contains(prompt, "Return ONLY the completed command.") {
		t.Error("fixed instruction missing")
	}
}

func TestBuildUserPromptDeterministic(t *testing.T) {
	d := &nudgectx.Data{
		Plugins: map[string]*plugins.Data{
			"rust":   {DisplayName: "Rust", Fields: map[string]any{"name": "x"}},
			"python": {DisplayName: "Python", Fields: map[string]any{"name": "y"}},
			"node":   {DisplayName: "Node.js", Fields: map[string]any{"name": "z"}},
		},
	}
	first := BuildUserPrompt("cargo b", shellmode.ZshInline, d)
	for i := 0; i < 5; i++ {
		if got := BuildUserPrompt("cargo b", shellmode.ZshInline, d); got != first {
			t.Fatal("prompt not deterministic across map iterations")
		}
	}
}

func TestFormatArrayCapsAtTen(t *testing.T) {
	arr := make([]any, 15)
	for i := range arr {
		arr[i] = "item"
	}
	got := formatArray(arr)
	if n := strings.Count(got, "item"); n != 10 {
		t.Errorf("rendered %d items, want 10", n)
	}
}

func TestHumanizeKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"package_manager", "Package Manager"},
		{"name", "Name"},
		{"is_monorepo", "Is Monorepo"},
	}
	for _, tt := range tests {
		if got := humanizeKey(tt.in); got != tt.want {
			t.Errorf("humanizeKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseDiagnosis(t *testing.T) {
	t.Run("contract honored", func(t *testing.T) {
		d, s, err := parseDiagnosis(`{"diagnosis": "Typo: gti should be git", "suggestion": "git status"}`)
		if err != nil || d != "Typo: gti should be git" || s != "git status" {
			t.Errorf("parseDiagnosis = %q, %q, %v", d, s, err)
		}
	})

	t.Run("null suggestion", func(t *testing.T) {
		d, s, _ := parseDiagnosis(`{"diagnosis": "Unknown failure", "suggestion": null}`)
		if d != "Unknown failure" || s != "" {
			t.Errorf("parseDiagnosis = %q, %q", d, s)
		}
	})

	t.Run("fenced json", func(t *testing.T) {
		d, s, _ := parseDiagnosis("```json\n{\"diagnosis\": \"x\", \"suggestion\": \"y\"}\n```")
		if d != "x" || s != "y" {
			t.Errorf("parseDiagnosis = %q, %q", d, s)
		}
	})

	t.Run("contract violated", func(t *testing.T) {
		d, s, _ := parseDiagnosis("The command failed because\nof many reasons")
		if d != "The command failed because" || s != "" {
			t.Errorf("parseDiagnosis = %q, %q", d, s)
		}
	})
}
