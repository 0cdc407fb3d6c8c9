//go:build !linux && !darwin

package context

// osVersion has no portable source on this platform.
func osVersion() string {
	return "unknown"
}
