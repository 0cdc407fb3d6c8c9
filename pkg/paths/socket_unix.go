//go:build !windows

package paths

import "path/filepath"

// SocketPath is the Unix domain socket the daemon listens on.
func SocketPath() string {
	return filepath.Join(RunDir(), "nudge.sock")
}
