//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/daemon"
)

// listen binds the Unix domain socket. A leftover socket file whose owner is
// gone (per the PID file probe) is reclaimed and the bind retried once.
func listen(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return nil, fmt.Errorf("server: create run dir: %w", err)
	}

	ln, err := net.Listen("unix", socketPath)
	if err == nil {
		return ln, nil
	}

	if _, statErr := os.Stat(socketPath); statErr == nil {
		if daemon.OwnerAlive() {
			return nil, fmt.Errorf("server: socket %s is owned by a running daemon", socketPath)
		}
		log.Warn("removing stale socket file", zap.String("path", socketPath))
		if rmErr := os.Remove(socketPath); rmErr != nil {
			return nil, fmt.Errorf("server: remove stale socket: %w", rmErr)
		}
		return net.Listen("unix", socketPath)
	}

	return nil, fmt.Errorf("server: bind %s: %w", socketPath, err)
}

// cleanupEndpoint unlinks the socket file on the way out.
func cleanupEndpoint(socketPath string) {
	os.Remove(socketPath)
}
