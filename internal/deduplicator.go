package internal

import (
	"encoding/hex"
	"strings"

	"github.com/zeebo/blake3"
)

// Fingerprint hashes text after folding case and whitespace, so trivially
// reformatted copies of the same text share a fingerprint.
func Fingerprint(text string) string {
	normalized := strings.Join(strings.Fields(strings.ToLower(text)), " ")
	sum := blake3.Sum256([]byte(normalized))
	return hex.EncodeToString(sum[:])
}

// Deduplicator remembers fingerprints it has seen
type Deduplicator struct {
	seen map[string]bool
}

// NewDeduplicator creates a new Deduplicator
func NewDeduplicator() *Deduplicator {
	return &Deduplicator{seen: make(map[string]bool)}
}

// Seen records text and reports whether an equivalent text was recorded before
func (d *Deduplicator) Seen(text string) bool {
	fp := Fingerprint(text)
	if d.seen[fp] {
		return true
	}
	d.seen[fp] = true
	return false
}

// Unique filters texts down to their first occurrences, keeping order
func (d *Deduplicator) Unique(texts []string) []string {
	var unique []string
	for _, text := range texts {
		if !d.Seen(text) {
			unique = append(unique, text)
		}
	}
	return unique
}
