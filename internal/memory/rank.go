package memory

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// Okapi BM25 parameters
const (
	bm25K1      = 1.2
	bm25B       = 0.75
	bm25Epsilon = 0.25
)

var termPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// terms splits text into lowercase word runs, dropping single characters
func terms(text string) []string {
	matches := termPattern.FindAllString(strings.ToLower(text), -1)
	out := matches[:0]
	for _, m := range matches {
		if len([]rune(m)) >= 2 {
			out = append(out, m)
		}
	}
	return out
}

// rank scores docs against query with BM25 and returns the best k with a
// positive score, highest first. Ties keep storage order.
func rank(docs []Document, query string, k int) []Document {
	queryTerms := terms(query)
	if len(queryTerms) == 0 || len(docs) == 0 || k <= 0 {
		return nil
	}

	frequencies := make([]map[string]int, len(docs))
	lengths := make([]int, len(docs))
	documentFrequency := make(map[string]int)
	total := 0
	for i, doc := range docs {
		tf := make(map[string]int)
		for _, term := range terms(doc.Text) {
			if tf[term] == 0 {
				documentFrequency[term]++
			}
			tf[term]++
			lengths[i]++
		}
		frequencies[i] = tf
		total += lengths[i]
	}
	avgLength := float64(total) / float64(len(docs))
	if avgLength == 0 {
		return nil
	}

	n := float64(len(docs))
	idf := func(term string) float64 {
		df := float64(documentFrequency[term])
		v := math.Log(1 + (n-df+0.5)/(df+0.5))
		if v < 0 {
			return bm25Epsilon
		}
		return v
	}

	var hits []Document
	for i, doc := range docs {
		var score float64
		for _, term := range queryTerms {
			tf := float64(frequencies[i][term])
			if tf == 0 {
				continue
			}
			norm := tf + bm25K1*(1-bm25B+bm25B*float64(lengths[i])/avgLength)
			score += idf(term) * tf * (bm25K1 + 1) / norm
		}
		if score > 0 {
			doc.Score = score
			hits = append(hits, doc)
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
