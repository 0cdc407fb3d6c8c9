//go:build windows

package daemon

import "os"

// Alive reports whether the process can be opened. Windows has no signal 0;
// FindProcess succeeding is the closest portable probe.
func Alive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	proc.Release()
	return true
}

// terminate kills the process; Windows offers no graceful signal.
func terminate(pid int) error {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	defer proc.Release()
	return proc.Kill()
}
