package store

import (
	"crypto/sha256"
	"fmt"
	"io"
	"sort"
)

// ContentHash returns the hex sha256 of a file's content. Files whose hash
// matches the stored one are skipped by batch runs.
func ContentHash(content []byte) string {
	return fmt.Sprintf("%x", sha256.Sum256(content))
}

// ScriptsHash computes a deterministic hash over named script sources.
// Entries are sorted by name so map iteration order does not matter.
func ScriptsHash(scripts map[string]string) string {
	names := make([]string, 0, len(scripts))
	for name := range scripts {
		names = append(names, name)
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		io.WriteString(h, name)
		io.WriteString(h, "\x00")
		io.WriteString(h, scripts[name])
		io.WriteString(h, "\x00")
	}
	return fmt.Sprintf("%x", h.Sum(nil))
}
