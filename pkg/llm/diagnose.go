package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jg-phare/nudge/pkg/config"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/protocol"
)

const diagnosisSystemPrompt = `You are a CLI error diagnosis assistant. Analyze the failed command and provide a fix.

Rules:
1. Return ONLY a JSON object with "diagnosis" and "suggestion" fields
2. The "diagnosis" should be a brief (1-2 sentence) explanation
3. The "suggestion" should be the single most likely correct command to fix the error
4. If you cannot determine a fix, set "suggestion" to null
5. Do not explain or add commentary outside the JSON
6. Focus on common issues: typos, missing arguments, wrong paths, permission errors

Example response:
{"diagnosis": "Typo: 'gti' should be 'git'", "suggestion": "git status"}`

// Diagnose asks the model to explain a failed command. Bounded by
// diagnosis.timeout_ms. A reply that does not honor the JSON contract
// degrades to a plain-text diagnosis with no suggestion.
func Diagnose(ctx context.Context, req *protocol.DiagnosisRequest, data *nudgectx.Data, cfg *config.Config) (diagnosis, suggestion string, err error) {
	user := buildDiagnosisPrompt(req, data, cfg.Diagnosis.MaxStderrSize)

	reply, err := postChat(ctx, diagnosisSystemPrompt, user, 300,
		time.Duration(cfg.Diagnosis.TimeoutMs)*time.Millisecond, cfg)
	if err != nil {
		return "", "", err
	}

	return parseDiagnosis(reply)
}

func buildDiagnosisPrompt(req *protocol.DiagnosisRequest, d *nudgectx.Data, maxStderr int) string {
	var b strings.Builder

	fmt.Fprintf(&b, "## Failed Command\n```\n%s\n```\n\n", req.Command)
	fmt.Fprintf(&b, "## Exit Code: %d\n\n", req.ExitCode)

	if req.Stderr != "" {
		stderr := req.Stderr
		if maxStderr > 0 && len(stderr) > maxStderr {
			stderr = stderr[:maxStderr]
		}
		fmt.Fprintf(&b, "## Captured Stderr\n```\n%s\n```\n\n", stderr)
	}

	if d != nil && len(d.History) > 0 {
		b.WriteString("## Recent Commands\n")
		for _, cmd := range d.History {
			fmt.Fprintf(&b, "- %s\n", cmd)
		}
		b.WriteString("\n")
	}
	if d != nil && len(d.Files) > 0 {
		fmt.Fprintf(&b, "## Current Directory Files\n%s\n\n", strings.Join(d.Files, ", "))
	}

	b.WriteString("Diagnose the failure and reply with the JSON object only.")
	return b.String()
}

// parseDiagnosis extracts the {diagnosis, suggestion} contract, unwrapping a
// fenced block when present.
func parseDiagnosis(reply string) (string, string, error) {
	text := strings.TrimSpace(reply)
	if strings.HasPrefix(text, "```") {
		var inner []string
		for _, line := range strings.Split(text, "\n")[1:] {
			if strings.HasPrefix(line, "```") {
				break
			}
			inner = append(inner, line)
		}
		text = strings.TrimSpace(strings.Join(inner, "\n"))
	}

	var parsed struct {
		Diagnosis  string  `json:"diagnosis"`
		Suggestion *string `json:"suggestion"`
	}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed.Diagnosis == "" {
		// Contract violation: salvage the first line as the diagnosis.
		if i := strings.IndexByte(text, '\n'); i >= 0 {
			text = text[:i]
		}
		return strings.TrimSpace(text), "", nil
	}

	if parsed.Suggestion != nil {
		return parsed.Diagnosis, *parsed.Suggestion, nil
	}
	return parsed.Diagnosis, "", nil
}
