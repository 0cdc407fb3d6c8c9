package context

import (
	"os"
	"runtime"
)

// CollectSystemInfo fills the cheap always-on context: compile-time OS and
// architecture, runtime kernel version, shell type from the session id, and
// the username from the environment.
func CollectSystemInfo(sessionID string) SystemInfo {
	return SystemInfo{
		OSType:    runtime.GOOS,
		OSVersion: osVersion(),
		Arch:      runtime.GOARCH,
		ShellType: detectShell(sessionID).String(),
		Username:  username(),
	}
}

func username() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	if u := os.Getenv("USERNAME"); u != "" {
		return u
	}
	return "unknown"
}
