package daemon

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/paths"
)

// ForkToBackground re-executes the binary with the foreground flag, detaches
// the standard streams, and returns immediately.
func ForkToBackground() error {
	exe, err := os.Executable()
	if err != nil {
		return fmt.Errorf("daemon: resolve executable: %w", err)
	}

	cmd := exec.Command(exe, "start", "--foreground")
	cmd.Stdin = nil
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemon: fork: %w", err)
	}
	// The child owns its own lifetime from here.
	return cmd.Process.Release()
}

// Stop asks a running daemon to terminate and always cleans the run files.
// A PID file without a live process, or a socket without a PID file, is
// treated as stale and removed.
func Stop() (bool, error) {
	pid, ok := ReadPID()
	if !ok {
		removeSocketFile()
		return false, nil
	}

	stopped := false
	if Alive(pid) {
		if err := terminate(pid); err != nil {
			log.Warn("failed to signal daemon", zap.Int("pid", pid), zap.Error(err))
		} else {
			stopped = true
		}
	}

	os.Remove(paths.PIDPath())
	removeSocketFile()
	return stopped, nil
}

// Status reports liveness from the PID file; a negative probe cleans the
// stale run files as a side effect.
func Status() (running bool, pid int) {
	pid, ok := ReadPID()
	if ok && Alive(pid) {
		return true, pid
	}

	os.Remove(paths.PIDPath())
	removeSocketFile()
	return false, 0
}

// removeSocketFile unlinks the Unix socket; named pipes leave no file.
func removeSocketFile() {
	if runtime.GOOS == "windows" {
		return
	}
	os.Remove(paths.SocketPath())
}
