//go:build windows

package paths

import "os"

// SocketPath is the per-user named pipe the daemon listens on.
func SocketPath() string {
	username := os.Getenv("USERNAME")
	if username == "" {
		username = "default"
	}
	return `\\.\pipe\nudge_` + username
}
