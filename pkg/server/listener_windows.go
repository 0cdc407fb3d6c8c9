//go:build windows

package server

import (
	"net"

	"github.com/Microsoft/go-winio"
)

// listen binds the per-user named pipe. Pipes vanish with their owner, so
// there is no stale file to reclaim.
func listen(pipePath string) (net.Listener, error) {
	return winio.ListenPipe(pipePath, nil)
}

// cleanupEndpoint is a no-op; named pipes leave nothing behind.
func cleanupEndpoint(string) {}
