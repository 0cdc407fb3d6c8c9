// Package cache provides the suggestion cache and its canonical key.
package cache

import (
	"encoding/binary"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/cespare/xxhash/v2"

	"github.com/jg-phare/nudge/pkg/protocol"
	"github.com/jg-phare/nudge/pkg/sanitize"
	"github.com/jg-phare/nudge/pkg/shellmode"
)

// KeyVersion prefixes every cache key. Any breaking change to the
// fingerprint must bump it.
const KeyVersion = "sk:v1"

// Two fixed seeds give two independent 64-bit digests per input; their
// concatenation is the 128-bit fingerprint.
const (
	seedLo uint64 = 0
	seedHi uint64 = 0x9e3779b185ebca87
)

// BuildKey computes the canonical cache key for a request. The typed prefix
// is sanitized before hashing, so two buffers differing only in secret bytes
// map to the same key. The key is byte-stable across hosts and runs.
func BuildKey(req *protocol.CompletionRequest, mode shellmode.Mode, prefixBytes int) string {
	prefix := req.Buffer[:req.ClampedCursor()]
	sanitized, _ := sanitize.SanitizeString(prefix, nil)
	truncated := truncateUTF8(sanitized, prefixBytes)
	prefixHash := hashHex16([]byte(truncated))

	pathInput := req.Cwd
	if req.GitRoot != "" {
		pathInput = req.GitRoot
	}
	cwdHash := hashHex16([]byte(normalizePath(pathInput)))

	gitInput := req.GitState
	if gitInput == "" {
		gitInput = "nogit"
	}
	gitHash := hashHex16([]byte(gitInput))

	modeStr := strings.ToLower(mode.String())
	var bucket uint64
	if strings.HasSuffix(modeStr, "-auto") {
		bucket = req.TimeBucket
	}

	return fmt.Sprintf("%s:%s:%s:%s:%s:%d", KeyVersion, prefixHash, cwdHash, gitHash, modeStr, bucket)
}

// truncateUTF8 cuts s to at most maxBytes without splitting a codepoint.
func truncateUTF8(s string, maxBytes int) string {
	if maxBytes <= 0 || s == "" {
		return ""
	}
	if len(s) <= maxBytes {
		return s
	}
	end := maxBytes
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	return s[:end]
}

// normalizePath canonicalizes the path; on Windows it is also lowercased.
// An unresolvable path hashes as given, so a nonexistent cwd still keys.
func normalizePath(path string) string {
	normalized := path
	if resolved, err := filepath.EvalSymlinks(filepath.Clean(path)); err == nil {
		normalized = resolved
	}
	if runtime.GOOS == "windows" {
		normalized = strings.ToLower(normalized)
	}
	return normalized
}

// hashHex16 is the 128-bit fingerprint: two seeded xxhash-64 digests,
// hex-encoded and concatenated.
func hashHex16(b []byte) string {
	return fmt.Sprintf("%016x%016x", seededSum(seedLo, b), seededSum(seedHi, b))
}

func seededSum(seed uint64, b []byte) uint64 {
	var pre [8]byte
	binary.LittleEndian.PutUint64(pre[:], seed)
	d := xxhash.New()
	d.Write(pre[:])
	d.Write(b)
	return d.Sum64()
}
