package duo

import (
	"strings"

	"github.com/iksnae/agentroom/internal"
)

// Detector defaults
const (
	DefaultNGram     = 3
	DefaultWindow    = 4
	DefaultThreshold = 0.6
)

// Detector spots a conversation that has started repeating itself: an exact
// repeat of any earlier response, or a response whose word n-grams mostly
// appear in the last few responses.
type Detector struct {
	n         int
	window    int
	threshold float64
	recent    [][]string
	seen      *internal.Deduplicator
}

// NewDetector creates a detector comparing each response against the
// previous window-1 responses. Zero values take the defaults.
func NewDetector(n, window int, threshold float64) *Detector {
	if n <= 0 {
		n = DefaultNGram
	}
	if window < 2 {
		window = DefaultWindow
	}
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	return &Detector{
		n:         n,
		window:    window,
		threshold: threshold,
		seen:      internal.NewDeduplicator(),
	}
}

// Observe records a response and reports whether the conversation has degenerated
func (d *Detector) Observe(text string) bool {
	if d.seen.Seen(text) {
		internal.LogDebug("Exact repeat: %q", text)
		return true
	}

	grams := ngrams(text, d.n)
	overlap := d.overlap(grams)

	d.recent = append(d.recent, grams)
	if len(d.recent) > d.window-1 {
		d.recent = d.recent[1:]
	}

	if overlap >= d.threshold {
		internal.LogDebug("N-gram overlap %.2f >= %.2f", overlap, d.threshold)
		return true
	}
	return false
}

// overlap is the share of grams already present in the recent window
func (d *Detector) overlap(grams []string) float64 {
	if len(grams) == 0 || len(d.recent) == 0 {
		return 0
	}
	window := make(map[string]bool)
	for _, r := range d.recent {
		for _, g := range r {
			window[g] = true
		}
	}
	hits := 0
	for _, g := range grams {
		if window[g] {
			hits++
		}
	}
	return float64(hits) / float64(len(grams))
}

// ngrams returns the distinct lowercase word n-grams of text
func ngrams(text string, n int) []string {
	words := strings.Fields(strings.ToLower(text))
	for i, w := range words {
		words[i] = strings.Trim(w, `.,!?;:"'()`)
	}
	if len(words) < n {
		return nil
	}
	seen := make(map[string]bool)
	var grams []string
	for i := 0; i+n <= len(words); i++ {
		g := strings.Join(words[i:i+n], " ")
		if !seen[g] {
			seen[g] = true
			grams = append(grams, g)
		}
	}
	return grams
}
