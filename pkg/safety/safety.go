// Package safety screens suggested commands against known destructive
// patterns. A match never suppresses the suggestion; it attaches a warning
// for the integration layer to render.
package safety

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/jg-phare/nudge/internal/log"
	"github.com/jg-phare/nudge/pkg/protocol"
)

// dangerousPatterns are checked in order; the first match wins.
var dangerousPatterns = []struct {
	re      *regexp.Regexp
	message string
}{
	{regexp.MustCompile(`rm\s+(-[rfRF]+\s+)*(/|~|\$HOME)\s*$`),
		"This command will recursively delete the root/home directory"},
	{regexp.MustCompile(`rm\s+(-[rfRF]+\s+)+\*\s*$`),
		"This command will recursively delete all files"},
	{regexp.MustCompile(`rm\s+-rf\s+/\s*$`),
		"This command will destroy your system"},

	{regexp.MustCompile(`mkfs\.\w+\s+`),
		"This command will format a disk, destroying all data"},
	{regexp.MustCompile(`dd\s+if=.*of=/dev/(?:sd|nvme|hd)`),
		"This command may overwrite disk data"},

	{regexp.MustCompile(`:\(\)\s*\{\s*:\|:&\s*\}`),
		"This is a fork bomb that will crash your system"},

	{regexp.MustCompile(`chmod\s+(-R\s+)?777\s+/`),
		"Setting 777 permissions on root is a security risk"},

	{regexp.MustCompile(`curl\s+.*\|\s*(ba)?sh`),
		"Piping untrusted content to shell is dangerous"},

	{regexp.MustCompile(`>\s*/etc/passwd`),
		"This will destroy the password file"},
	{regexp.MustCompile(`>\s*/etc/shadow`),
		"This will destroy the shadow password file"},

	{regexp.MustCompile(`kill\s+-9\s+-1`),
		"This will kill all processes"},
	{regexp.MustCompile(`pkill\s+-9\s+.`),
		"This may kill important processes"},
}

const customMessage = "This command matches a custom dangerous pattern"

// Check returns a warning when the command matches a dangerous pattern, nil
// otherwise. Custom patterns extend the built-in list with a generic message.
func Check(command string, customPatterns []string) *protocol.Warning {
	for _, p := range dangerousPatterns {
		if p.re.MatchString(command) {
			log.Debug("dangerous command detected", zap.String("command", command))
			return protocol.DangerousWarning(p.message)
		}
	}

	for _, raw := range customPatterns {
		re, err := regexp.Compile(raw)
		if err != nil {
			log.Warn("ignoring invalid custom blocked pattern", zap.String("pattern", raw), zap.Error(err))
			continue
		}
		if re.MatchString(command) {
			log.Debug("custom dangerous pattern matched", zap.String("command", command))
			return protocol.DangerousWarning(customMessage)
		}
	}

	return nil
}
