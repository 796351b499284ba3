package memory

import (
	"context"
	"strconv"
	"strings"

	"github.com/iksnae/agentroom/internal"
)

// Corpus chunking defaults, in whitespace-separated words
const (
	DefaultChunkSize = 100
	DefaultOverlap   = 50
)

// SplitCorpus splits text into windows of size words, each starting
// size-overlap words after the previous one. The last window may be shorter.
func SplitCorpus(text string, size, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 || size <= 0 {
		return nil
	}
	step := size - overlap
	if step <= 0 {
		step = size
	}

	var chunks []string
	for start := 0; start < len(words); start += step {
		end := start + size
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// ChunkID is the stable id of a knowledge-base chunk, so re-ingesting the
// same text replaces rather than duplicates it
func ChunkID(chunk string) string {
	return "kb-" + internal.Fingerprint(chunk)[:32]
}

// Ingest splits text into chunks and upserts each into the collection.
// It returns the number of chunks written.
func Ingest(ctx context.Context, c Collection, source, text string, size, overlap int) (int, error) {
	chunks := SplitCorpus(text, size, overlap)
	for i, chunk := range chunks {
		meta := map[string]string{"source": source, "chunk": strconv.Itoa(i)}
		if err := c.Upsert(ctx, ChunkID(chunk), chunk, meta); err != nil {
			return i, err
		}
	}
	internal.LogInfo("Ingested %d chunks from %s into %s", len(chunks), source, c.Name())
	return len(chunks), nil
}
