//go:build linux || darwin

package context

import "golang.org/x/sys/unix"

// osVersion returns the kernel release string.
func osVersion() string {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return "unknown"
	}
	return unix.ByteSliceToString(uts.Release[:])
}
