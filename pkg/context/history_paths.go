//go:build !windows

package context

import (
	"os"
	"path/filepath"
)

// psReadLinePath locates the PSReadLine history for PowerShell on Unix.
func psReadLinePath(home string) string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "powershell", "PSReadLine", "ConsoleHost_history.txt")
}
