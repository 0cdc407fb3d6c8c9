package client

import (
	"encoding/json"
	"strings"

	"github.com/jg-phare/nudge/pkg/protocol"
)

// PlainWarningPrefix marks a warning line in plain output; the shell
// integration greps for this literal.
const PlainWarningPrefix = "NUDGE_WARNING:"

const (
	riskLow  = "low"
	riskHigh = "high"
)

// OutputFormat selects the rendering of a completion response.
type OutputFormat string

const (
	FormatPlain OutputFormat = "plain"
	FormatList  OutputFormat = "list"
	FormatJSON  OutputFormat = "json"
)

// BuildPlainOutput renders the first suggestion for ghost text: the bare
// command, or the prefixed warning when the safety screen fired. Empty on
// error responses so the prompt stays clean.
func BuildPlainOutput(resp *protocol.CompletionResponse) string {
	if len(resp.Suggestions) == 0 {
		return ""
	}
	s := resp.Suggestions[0]
	if s.Warning != nil {
		return PlainWarningPrefix + " " + s.Warning.Message
	}
	return s.Text
}

// BuildListOutput renders tab-separated rows for popup selectors:
// <risk>\t<command>\t<warning>\t<why>\t<diff>, one row per suggestion.
// Tabs and newlines inside fields become spaces. Empty on error responses.
func BuildListOutput(resp *protocol.CompletionResponse, buffer string) string {
	if len(resp.Suggestions) == 0 {
		return ""
	}

	var b strings.Builder
	for _, s := range resp.Suggestions {
		risk := riskLow
		warning := ""
		if s.Warning != nil {
			risk = riskHigh
			warning = sanitizeField(s.Warning.Message)
		}

		fields := []string{
			risk,
			sanitizeField(s.Text),
			warning,
			sanitizeField(buildWhy(buffer, &s)),
			sanitizeField(buildDiff(buffer, s.Text)),
		}
		b.WriteString(strings.Join(fields, "\t"))
		b.WriteString("\n")
	}
	return b.String()
}

// BuildJSONOutput renders the full response, errors included.
func BuildJSONOutput(resp *protocol.CompletionResponse) (string, error) {
	data, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func sanitizeField(s string) string {
	replacer := strings.NewReplacer("\t", " ", "\n", " ", "\r", " ")
	return replacer.Replace(s)
}

func buildWhy(buffer string, s *protocol.Suggestion) string {
	if s.Warning != nil {
		return "safety check flagged"
	}
	if strings.HasPrefix(s.Text, buffer) {
		return "prefix completion"
	}
	return "context rewrite"
}

// buildDiff shows what accepting the suggestion changes: "+tail" for a pure
// extension, a rewrite arrow otherwise.
func buildDiff(buffer, suggestion string) string {
	if tail, ok := strings.CutPrefix(suggestion, buffer); ok {
		if tail == "" {
			return "+<none>"
		}
		return "+" + tail
	}
	return "~ " + buffer + " -> " + suggestion
}
