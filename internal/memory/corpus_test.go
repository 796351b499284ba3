package memory

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/iksnae/agentroom/internal"
)

func words(n int) string {
	w := make([]string, n)
	for i := range w {
		w[i] = "w" + strconv.Itoa(i)
	}
	return strings.Join(w, " ")
}

func TestSplitCorpus(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		size       int
		overlap    int
		wantChunks int
		wantLast   int
	}{
		{name: "empty", text: "  ", size: 100, overlap: 50, wantChunks: 0},
		{name: "shorter than a chunk", text: words(30), size: 100, overlap: 50, wantChunks: 1, wantLast: 30},
		{name: "exact chunk", text: words(100), size: 100, overlap: 50, wantChunks: 1, wantLast: 100},
		{name: "overlapping windows", text: words(250), size: 100, overlap: 50, wantChunks: 4, wantLast: 100},
		{name: "ragged tail", text: words(120), size: 100, overlap: 50, wantChunks: 2, wantLast: 70},
		{name: "overlap not below size", text: words(30), size: 10, overlap: 10, wantChunks: 3, wantLast: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := SplitCorpus(tt.text, tt.size, tt.overlap)
			if len(chunks) != tt.wantChunks {
				t.Fatalf("SplitCorpus() returned %d chunks, want %d", len(chunks), tt.wantChunks)
			}
			if tt.wantChunks == 0 {
				return
			}
			if got := len(strings.Fields(chunks[len(chunks)-1])); got != tt.wantLast {
				t.Errorf("last chunk has %d words, want %d", got, tt.wantLast)
			}
		})
	}
}

func TestIngestIsIdempotent(t *testing.T) {
	db, err := internal.OpenDatabase(":memory:")
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()
	store, err := NewSQLiteStore(db)
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}

	ctx := context.Background()
	kb, _ := store.GetOrCreate(ctx, "ada-kb")
	text := words(250)
	for i := 0; i < 2; i++ {
		n, err := Ingest(ctx, kb, "notes.txt", text, DefaultChunkSize, DefaultOverlap)
		if err != nil {
			t.Fatalf("Ingest() error = %v", err)
		}
		if n != 4 {
			t.Errorf("Ingest() = %d chunks, want 4", n)
		}
	}
	if count, _ := kb.Count(ctx); count != 4 {
		t.Errorf("Count() = %d after ingesting twice, want 4", count)
	}
}

func TestChunkID(t *testing.T) {
	id := ChunkID("some chunk")
	if !strings.HasPrefix(id, "kb-") || len(id) != 35 {
		t.Errorf("ChunkID() = %q, want kb- plus 32 hex chars", id)
	}
	if ChunkID("some chunk") != id {
		t.Error("ChunkID() should be deterministic")
	}
}
