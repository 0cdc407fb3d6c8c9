//go:build !windows

package client

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/jg-phare/nudge/pkg/protocol"
)

func TestDialDaemonMissingSocket(t *testing.T) {
	sock := filepath.Join(t.TempDir(), "nudge.sock")

	conn, errInfo := dialDaemon(sock, time.Second)
	if conn != nil {
		conn.Close()
		t.Fatal("dial succeeded against nothing")
	}
	if errInfo == nil {
		t.Fatal("expected error info")
	}
	if errInfo.Code != protocol.ErrLLMUnavailable || !errInfo.Recoverable {
		t.Errorf("errInfo = %+v, want recoverable llm_unavailable", errInfo)
	}
}
