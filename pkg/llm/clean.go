package llm

import "strings"

// CleanCompletion normalizes a model reply into a single shell command:
// trim, unwrap a fenced code block, keep the first line. An empty reply
// falls back to the original buffer so an empty suggestion is never
// produced. The function is idempotent.
func CleanCompletion(text, originalBuffer string) string {
	text = strings.TrimSpace(text)

	if strings.HasPrefix(text, "```") {
		var inner []string
		for _, line := range strings.Split(text, "\n")[1:] {
			if strings.HasPrefix(line, "```") {
				break
			}
			inner = append(inner, line)
		}
		text = strings.Join(inner, "\n")
	}

	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(text)

	if text == "" {
		return originalBuffer
	}
	return text
}
