package internal

import (
	"errors"
	"fmt"
	"testing"
)

func TestNewMessageCache_InvalidCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			cache, err := NewMessageCache(capacity)
			if !errors.Is(err, ErrInvalidConfiguration) {
				t.Errorf("NewMessageCache(%d) error = %v, want ErrInvalidConfiguration", capacity, err)
			}
			if cache != nil {
				t.Errorf("NewMessageCache(%d) returned a cache, want nil", capacity)
			}
		})
	}
}

func TestMessageCache_EvictsOldest(t *testing.T) {
	cache, err := NewMessageCache(2)
	if err != nil {
		t.Fatalf("NewMessageCache() error = %v", err)
	}

	t1 := CreateTestTurn("one", "1")
	t2 := CreateTestTurn("two", "2")
	t3 := CreateTestTurn("three", "3")
	cache.Add(t1)
	cache.Add(t2)
	cache.Add(t3)

	want := []Turn{t2, t3}
	assertTurnIDs(t, "Recent(2)", cache.Recent(2), want)
	assertTurnIDs(t, "All()", cache.All(), want)
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestMessageCache_KeepsLastN(t *testing.T) {
	for _, capacity := range []int{1, 3, 5, 20} {
		t.Run(fmt.Sprintf("capacity %d", capacity), func(t *testing.T) {
			cache, err := NewMessageCache(capacity)
			if err != nil {
				t.Fatalf("NewMessageCache() error = %v", err)
			}
			var added []Turn
			for i := 0; i < capacity*3+1; i++ {
				turn := CreateTestTurn(fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
				added = append(added, turn)
				cache.Add(turn)
				if cache.Len() > capacity {
					t.Fatalf("Len() = %d exceeds capacity %d", cache.Len(), capacity)
				}
			}
			assertTurnIDs(t, "All()", cache.All(), added[len(added)-capacity:])
		})
	}
}

func TestMessageCache_RecentUnderfill(t *testing.T) {
	cache, _ := NewMessageCache(5)
	t1 := CreateTestTurn("one", "1")
	cache.Add(t1)

	tests := []struct {
		name string
		n    int
		want []Turn
	}{
		{name: "more than stored", n: 10, want: []Turn{t1}},
		{name: "exact", n: 1, want: []Turn{t1}},
		{name: "zero", n: 0, want: []Turn{}},
		{name: "negative", n: -3, want: []Turn{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertTurnIDs(t, fmt.Sprintf("Recent(%d)", tt.n), cache.Recent(tt.n), tt.want)
		})
	}
}

func TestMessageCache_EmptyAll(t *testing.T) {
	cache, _ := NewMessageCache(DefaultCacheCapacity)
	if got := cache.All(); len(got) != 0 {
		t.Errorf("All() on empty cache = %d turns, want 0", len(got))
	}
	if cache.Capacity() != DefaultCacheCapacity {
		t.Errorf("Capacity() = %d, want %d", cache.Capacity(), DefaultCacheCapacity)
	}
}

func assertTurnIDs(t *testing.T, label string, got, want []Turn) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s returned %d turns, want %d", label, len(got), len(want))
	}
	for i := range want {
		if got[i].ID != want[i].ID {
			t.Errorf("%s[%d] = %s, want %s", label, i, got[i].Request.Content, want[i].Request.Content)
		}
	}
}
