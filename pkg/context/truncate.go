package context

import (
	"sort"

	"github.com/jg-phare/nudge/pkg/config"
)

// truncateByPriority sheds context until the estimate fits maxTokens,
// dropping the lowest-priority source class first. Plugins (git included)
// are dropped wholesale, the file listing is halved, history loses its
// oldest half. Re-estimates after every removal and stops as soon as the
// budget holds or nothing is left to shed.
func truncateByPriority(d *Data, priorities config.PriorityConfig, maxTokens int) {
	type source struct {
		name     string
		priority int
	}
	sources := []source{
		{"history", priorities.History},
		{"cwd_listing", priorities.CwdListing},
		{"plugins", priorities.Plugins},
	}
	sort.SliceStable(sources, func(i, j int) bool {
		return sources[i].priority < sources[j].priority
	})

	for _, src := range sources {
		for d.EstimatedTokens > maxTokens {
			if !shedOnce(d, src.name) {
				break
			}
			d.Truncated = true
			d.EstimatedTokens = EstimateTokens(d)
		}
	}
}

// shedOnce removes one slice of the named source; false when the source has
// nothing left to give.
func shedOnce(d *Data, source string) bool {
	switch source {
	case "plugins":
		if d.Git == nil && len(d.Plugins) == 0 {
			return false
		}
		d.Git = nil
		d.Plugins = nil
		return true
	case "cwd_listing":
		if len(d.Files) == 0 {
			return false
		}
		d.Files = d.Files[:len(d.Files)/2]
		return true
	case "history":
		if len(d.History) == 0 {
			return false
		}
		// Keep the newest half.
		d.History = d.History[len(d.History)-len(d.History)/2:]
		if len(d.History) == 0 {
			d.History = nil
		}
		return true
	default:
		return false
	}
}
