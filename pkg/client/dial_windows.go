//go:build windows

package client

import (
	"net"
	"time"

	"github.com/Microsoft/go-winio"

	"github.com/jg-phare/nudge/pkg/protocol"
)

// dialDaemon connects to the per-user named pipe.
func dialDaemon(pipePath string, timeout time.Duration) (net.Conn, *protocol.ErrorInfo) {
	conn, err := winio.DialPipe(pipePath, &timeout)
	if err != nil {
		info := protocol.LLMUnavailable("daemon is not running; start it with: nudge start")
		return nil, &info
	}
	return conn, nil
}
