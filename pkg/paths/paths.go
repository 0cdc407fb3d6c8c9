// Package paths computes the per-user filesystem layout.
//
// Everything nudge writes lives under a single root, ~/.nudge by default,
// with the OS temp dir as a fallback when no home directory can be resolved.
package paths

import (
	"os"
	"path/filepath"
)

// Root returns the per-user root directory.
func Root() string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		return filepath.Join(home, ".nudge")
	}
	return filepath.Join(os.TempDir(), ".nudge")
}

// ConfigDir holds config.default.yaml and config.yaml.
func ConfigDir() string { return filepath.Join(Root(), "config") }

// RunDir holds the socket and PID files.
func RunDir() string { return filepath.Join(Root(), "run") }

// DataDir holds persistent daemon data.
func DataDir() string { return filepath.Join(Root(), "data") }

// LogsDir holds the daemon log files.
func LogsDir() string { return filepath.Join(Root(), "logs") }

// ShellDir holds installed shell integration scripts.
func ShellDir() string { return filepath.Join(Root(), "shell") }

// LibDir holds the optional in-process library binary.
func LibDir() string { return filepath.Join(Root(), "lib") }

// BaseConfigPath is the shipped base layer, replaced on upgrade.
func BaseConfigPath() string { return filepath.Join(ConfigDir(), "config.default.yaml") }

// UserConfigPath is the user overlay, preserved on upgrade.
func UserConfigPath() string { return filepath.Join(ConfigDir(), "config.yaml") }

// PIDPath is the daemon PID file.
func PIDPath() string { return filepath.Join(RunDir(), "nudge.pid") }
