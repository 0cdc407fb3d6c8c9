//go:build !windows

package client

import (
	"net"
	"os"
	"time"

	"github.com/jg-phare/nudge/pkg/protocol"
)

// dialDaemon connects to the Unix socket. A missing socket means the daemon
// is not running; the shell may start it and retry.
func dialDaemon(socketPath string, timeout time.Duration) (net.Conn, *protocol.ErrorInfo) {
	if _, err := os.Stat(socketPath); err != nil {
		info := protocol.LLMUnavailable("daemon is not running; start it with: nudge start")
		return nil, &info
	}

	conn, err := net.DialTimeout("unix", socketPath, timeout)
	if err != nil {
		info := protocol.LLMUnavailable("failed to connect to daemon: " + err.Error())
		return nil, &info
	}
	return conn, nil
}
