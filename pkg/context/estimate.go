package context

import (
	"math"
	"sort"
	"strings"
)

// EstimateTokens approximates the prompt cost of the gathered context. The
// formula is intentionally crude but deterministic: the same Data always
// yields the same estimate, which the truncation loop and cache rely on.
func EstimateTokens(d *Data) int {
	total := 0

	for _, cmd := range d.History {
		total += wordTokens(cmd)
	}

	total += len(d.Files)

	for _, cmd := range d.SimilarCommands {
		total += wordTokens(cmd)
	}

	if git := d.Git; git != nil {
		if git.Branch != "" {
			total += 5
		}
		total += len(git.Staged)
		total += len(git.LocalBranches)
		total += len(git.Unstaged)
	}

	// Stable iteration so plugin contributions sum in a fixed order.
	ids := make([]string, 0, len(d.Plugins))
	for id := range d.Plugins {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		total += fieldTokens(d.Plugins[id].Fields)
	}

	return total
}

// wordTokens estimates ~1.3 tokens per word.
func wordTokens(s string) int {
	words := len(strings.Fields(s))
	return int(math.Ceil(float64(words) * 1.3))
}

// fieldTokens walks a plugin field tree: each string leaf costs its word
// estimate, every other leaf costs one token.
func fieldTokens(v any) int {
	switch val := v.(type) {
	case map[string]any:
		total := 0
		for _, child := range val {
			total += fieldTokens(child)
		}
		return total
	case []any:
		total := 0
		for _, child := range val {
			total += fieldTokens(child)
		}
		return total
	case string:
		if val == "" {
			return 0
		}
		return wordTokens(val)
	case nil:
		return 0
	default:
		return 1
	}
}

func sortStrings(s []string) { sort.Strings(s) }
