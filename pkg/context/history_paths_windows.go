//go:build windows

package context

import (
	"os"
	"path/filepath"
)

// psReadLinePath locates the PSReadLine history under %APPDATA%.
func psReadLinePath(home string) string {
	appdata := os.Getenv("APPDATA")
	if appdata == "" {
		appdata = filepath.Join(home, "AppData", "Roaming")
	}
	return filepath.Join(appdata, "Microsoft", "Windows", "PowerShell", "PSReadLine", "ConsoleHost_history.txt")
}
