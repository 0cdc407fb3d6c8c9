package context

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

type fileEntry struct {
	name      string
	isDir     bool
	isSymlink bool
	ext       string
	hasExt    bool
}

// ListFiles lists the working directory the way a completion wants to see
// it: directories first, then grouped by extension, then by name, dotfiles
// skipped, capped at maxFiles. Directories get a "/" suffix and symlinks
// "@", like ls -F. A missing directory degrades to an empty listing.
func ListFiles(cwd string, maxFiles int) []string {
	dirEntries, err := os.ReadDir(cwd)
	if err != nil {
		return nil
	}

	entries := make([]fileEntry, 0, len(dirEntries))
	for _, de := range dirEntries {
		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		e := fileEntry{name: name, isDir: de.IsDir()}
		e.isSymlink = de.Type()&os.ModeSymlink != 0
		if ext := filepath.Ext(name); ext != "" {
			e.ext = strings.ToLower(strings.TrimPrefix(ext, "."))
			e.hasExt = true
		}
		entries = append(entries, e)
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.isDir != b.isDir {
			return a.isDir
		}
		if a.hasExt != b.hasExt {
			// Extensionless names sort before named extensions.
			return !a.hasExt
		}
		if a.ext != b.ext {
			return a.ext < b.ext
		}
		return a.name < b.name
	})

	if maxFiles > 0 && len(entries) > maxFiles {
		entries = entries[:maxFiles]
	}

	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = formatEntry(e)
	}
	return out
}

func formatEntry(e fileEntry) string {
	switch {
	case e.isDir:
		return e.name + "/"
	case e.isSymlink:
		return e.name + "@"
	default:
		return e.name
	}
}
