package memory

import (
	"reflect"
	"testing"
)

func TestTerms(t *testing.T) {
	got := terms("I like Go, and gophers! a 42")
	want := []string{"like", "go", "and", "gophers", "42"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("terms() = %v, want %v", got, want)
	}
}

func TestRank(t *testing.T) {
	docs := []Document{
		{ID: "1", Text: "we talked about sourdough bread and baking"},
		{ID: "2", Text: "the weather was rainy all week"},
		{ID: "3", Text: "baking bread at home, bread every sunday"},
		{ID: "4", Text: "mountain hiking trip"},
	}

	tests := []struct {
		name    string
		query   string
		k       int
		wantIDs []string
	}{
		{name: "ranks by relevance", query: "bread", k: 5, wantIDs: []string{"3", "1"}},
		{name: "limits to k", query: "bread baking", k: 1, wantIDs: []string{"3"}},
		{name: "no overlap", query: "spaceships", k: 5, wantIDs: nil},
		{name: "empty query", query: "  ", k: 5, wantIDs: nil},
		{name: "zero k", query: "bread", k: 0, wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := rank(docs, tt.query, tt.k)
			var ids []string
			for _, d := range got {
				ids = append(ids, d.ID)
				if d.Score <= 0 {
					t.Errorf("rank() hit %s has score %v, want > 0", d.ID, d.Score)
				}
			}
			if !reflect.DeepEqual(ids, tt.wantIDs) {
				t.Errorf("rank() ids = %v, want %v", ids, tt.wantIDs)
			}
		})
	}
}
