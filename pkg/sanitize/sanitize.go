// Package sanitize redacts secrets from context before it reaches the
// prompt, the cache fingerprint, or the logs. Nothing downstream of this
// package may see a raw secret.
package sanitize

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	nudgectx "github.com/jg-phare/nudge/pkg/context"
	"github.com/jg-phare/nudge/pkg/plugins"
)

// Event records one redaction for audit logging. The original text is gone
// by design; only its length survives.
type Event struct {
	PatternLabel   string
	OriginalLength int
}

// builtinPatterns are applied in order; every pattern leaves each replacement
// text unchanged (the --password, -p and --token replacements match their own
// pattern again and map to themselves), which is what makes sanitization
// idempotent.
var builtinPatterns = []struct {
	re          *regexp.Regexp
	replacement string
}{
	// OpenAI-style keys
	{regexp.MustCompile(`sk-[a-zA-Z0-9]{20,}`), "[REDACTED:openai_key]"},

	// GitHub tokens
	{regexp.MustCompile(`ghp_[a-zA-Z0-9]{36}`), "[REDACTED:github_token]"},
	{regexp.MustCompile(`gho_[a-zA-Z0-9]{36}`), "[REDACTED:github_oauth]"},
	{regexp.MustCompile(`ghs_[a-zA-Z0-9]{36}`), "[REDACTED:github_secret]"},

	// AWS access keys
	{regexp.MustCompile(`AKIA[0-9A-Z]{16}`), "[REDACTED:aws_key]"},

	// Generic api keys
	{regexp.MustCompile(`api[_-]?key[=:\s]+['"]?[a-zA-Z0-9_-]{20,}['"]?`), "api_key=[REDACTED]"},

	// Bearer tokens
	{regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._\-]+`), "Bearer [REDACTED]"},

	// CLI passwords and tokens
	{regexp.MustCompile(`--password[=\s]+\S+`), "--password=[REDACTED]"},
	{regexp.MustCompile(`-p\s+\S+`), "-p [REDACTED]"},
	{regexp.MustCompile(`--token[=\s]+\S+`), "--token=[REDACTED]"},

	// URL credentials
	{regexp.MustCompile(`://[^:/\s]+:[^@\s]+@`), "://[REDACTED]@"},

	// PEM private key headers
	{regexp.MustCompile(`-----BEGIN\s+(?:RSA\s+)?PRIVATE\s+KEY-----`), "[REDACTED:private_key]"},

	// Environment assignments whose name smells like a secret
	{regexp.MustCompile(`(?:export\s+)?[A-Z_]*(?:SECRET|PASSWORD|TOKEN|KEY)[A-Z_]*=\S+`), "[REDACTED:env_secret]"},
}

const customLabel = "[REDACTED:custom]"

// Sanitize returns a cleaned copy of the context and the redaction events.
// History, similar commands, and plugin string fields are rewritten; file
// names are never touched.
func Sanitize(d *nudgectx.Data, customPatterns []string) (*nudgectx.Data, []Event) {
	custom := compileCustom(customPatterns)
	var events []Event

	out := *d
	out.History = sanitizeSlice(d.History, custom, &events)
	out.SimilarCommands = sanitizeSlice(d.SimilarCommands, custom, &events)

	if len(d.Plugins) > 0 {
		out.Plugins = make(map[string]*plugins.Data, len(d.Plugins))
		for id, data := range d.Plugins {
			clean := *data
			clean.Fields = sanitizeValue(data.Fields, custom, &events).(map[string]any)
			out.Plugins[id] = &clean
		}
	}

	if len(events) > 0 {
		log.Debug("sanitized sensitive items", zap.Int("count", len(events)))
	}
	return &out, events
}

// SanitizeString cleans one string, for the cache fingerprint path.
func SanitizeString(s string, customPatterns []string) (string, []Event) {
	var events []Event
	return sanitizeText(s, compileCustom(customPatterns), &events), events
}

func compileCustom(patterns []string) []*regexp.Regexp {
	var out []*regexp.Regexp
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			log.Warn("ignoring invalid custom sanitize pattern", zap.String("pattern", p), zap.Error(err))
			continue
		}
		out = append(out, re)
	}
	return out
}

func sanitizeSlice(in []string, custom []*regexp.Regexp, events *[]Event) []string {
	if len(in) == 0 {
		return in
	}
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = sanitizeText(s, custom, events)
	}
	return out
}

// sanitizeValue walks a plugin field tree and rewrites every string leaf.
func sanitizeValue(v any, custom []*regexp.Regexp, events *[]Event) any {
	switch val := v.(type) {
	case string:
		return sanitizeText(val, custom, events)
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, child := range val {
			out[k] = sanitizeValue(child, custom, events)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, child := range val {
			out[i] = sanitizeValue(child, custom, events)
		}
		return out
	default:
		return v
	}
}

func sanitizeText(input string, custom []*regexp.Regexp, events *[]Event) string {
	result := input
	for _, p := range builtinPatterns {
		if matches := p.re.FindAllString(result, -1); len(matches) > 0 {
			for _, m := range matches {
				*events = append(*events, Event{PatternLabel: p.replacement, OriginalLength: len(m)})
			}
			result = p.re.ReplaceAllString(result, p.replacement)
		}
	}
	for _, re := range custom {
		if matches := re.FindAllString(result, -1); len(matches) > 0 {
			for _, m := range matches {
				*events = append(*events, Event{PatternLabel: customLabel, OriginalLength: len(m)})
			}
			result = re.ReplaceAllString(result, customLabel)
		}
	}
	return result
}
