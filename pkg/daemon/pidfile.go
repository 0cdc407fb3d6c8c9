// Package daemon owns the process lifecycle: single-instance enforcement
// via the PID file, fork-to-background, graceful stop, and status probing.
// The PID file belongs to this package; the server creates and removes the
// socket file, and this package removes it only when stopping or when it is stale.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gofrs/flock"

	"github.com/jg-phare/nudge/pkg/paths"
)

// PIDLock is the held single-instance claim.
type PIDLock struct {
	lock *flock.Flock
	path string
}

// AcquirePIDLock claims single-instance ownership: it refuses when a live
// daemon already holds the PID file, reclaims a stale file otherwise, and
// writes the current PID under an advisory lock.
func AcquirePIDLock() (*PIDLock, error) {
	pidPath := paths.PIDPath()
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o755); err != nil {
		return nil, fmt.Errorf("daemon: create run dir: %w", err)
	}

	if pid, ok := ReadPID(); ok && Alive(pid) && pid != os.Getpid() {
		return nil, fmt.Errorf("daemon: already running (pid %d)", pid)
	}

	fl := flock.New(pidPath + ".lock")
	locked, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("daemon: lock pid file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("daemon: another instance is starting")
	}

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0o644); err != nil {
		fl.Unlock()
		return nil, fmt.Errorf("daemon: write pid file: %w", err)
	}
	return &PIDLock{lock: fl, path: pidPath}, nil
}

// Release unlinks the PID file and drops the lock.
func (l *PIDLock) Release() {
	os.Remove(l.path)
	l.lock.Unlock()
	os.Remove(l.lock.Path())
}

// ReadPID parses the recorded daemon PID.
func ReadPID() (int, bool) {
	raw, err := os.ReadFile(paths.PIDPath())
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	return pid, true
}

// OwnerAlive reports whether the PID file names a live process. Stale files
// are not cleaned here; Status does that.
func OwnerAlive() bool {
	pid, ok := ReadPID()
	return ok && Alive(pid)
}
