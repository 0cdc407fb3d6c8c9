// Package context gathers the situated context for a completion request:
// shell history, directory listing, git state, project probes, and system
// info, collected in parallel under per-source deadlines and truncated to a
// token budget.
package context

import (
	"github.com/jg-phare/nudge/pkg/plugins"
)

// Data is the aggregated context handed to the prompt builder. Field order
// is fixed so serialization is deterministic regardless of which source
// finished first.
type Data struct {
	History         []string                 `json:"history"`
	Files           []string                 `json:"files"`
	LastExitCode    *int                     `json:"last_exit_code,omitempty"`
	Git             *plugins.GitContext      `json:"git,omitempty"`
	Plugins         map[string]*plugins.Data `json:"plugins,omitempty"`
	SimilarCommands []string                 `json:"similar_commands,omitempty"`
	System          SystemInfo               `json:"system"`
	EstimatedTokens int                      `json:"estimated_tokens"`
	// Truncated records whether the token budget forced anything out.
	Truncated bool `json:"truncated,omitempty"`
}

// SystemInfo is the cheap always-available context.
type SystemInfo struct {
	OSType    string `json:"os_type"`
	OSVersion string `json:"os_version"`
	Arch      string `json:"arch"`
	ShellType string `json:"shell_type"`
	Username  string `json:"username"`
}

// PluginIDs returns the contributing plugin ids, sorted.
func (d *Data) PluginIDs() []string {
	if len(d.Plugins) == 0 {
		return nil
	}
	ids := make([]string, 0, len(d.Plugins))
	for id := range d.Plugins {
		ids = append(ids, id)
	}
	sortStrings(ids)
	return ids
}
