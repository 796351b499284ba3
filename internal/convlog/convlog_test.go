package convlog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/testutil"
)

func newTestLog(t *testing.T) *Log {
	t.Helper()
	log, err := New(testutil.CreateInMemoryDB(t))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return log
}

func TestLog_CreateAppendLoad(t *testing.T) {
	ctx := context.Background()
	log := newTestLog(t)

	conv := internal.CreateTestConversation(2)
	if err := log.Create(ctx, conv); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	turn := internal.CreateTestTurn("What next?", "Let's talk about bees.")
	at := internal.TestTime.Add(time.Hour)
	conv.Append(turn, at)
	if err := log.Record(ctx, conv, turn); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	loaded, err := log.Load(ctx, conv.ID.String())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.ID != conv.ID || loaded.Host != conv.Host || loaded.Guest != conv.Guest {
		t.Errorf("Load() header = %+v, want %+v", loaded, conv)
	}
	if !loaded.CreatedAt.Equal(conv.CreatedAt) || !loaded.LastActive.Equal(at) {
		t.Errorf("Load() times = %v / %v, want %v / %v", loaded.CreatedAt, loaded.LastActive, conv.CreatedAt, at)
	}
	if len(loaded.Turns) != 3 {
		t.Fatalf("Load() returned %d turns, want 3", len(loaded.Turns))
	}
	if loaded.Turns[2] != turn {
		t.Errorf("Load() last turn = %+v, want %+v", loaded.Turns[2], turn)
	}
}

func TestLog_AppendUnknownConversation(t *testing.T) {
	log := newTestLog(t)
	conv := internal.CreateTestConversation(0)
	err := log.Append(context.Background(), conv.ID, internal.CreateTestTurn("a", "b"), internal.TestTime)
	if err == nil {
		t.Fatal("Append() to a missing conversation should fail")
	}
}

func TestLog_ListAndResolve(t *testing.T) {
	ctx := context.Background()
	log := newTestLog(t)

	older := internal.CreateTestConversation(1)
	newer := internal.CreateTestConversation(3)
	newer.LastActive = older.LastActive.Add(time.Hour)
	for _, c := range []*internal.Conversation{older, newer} {
		if err := log.Create(ctx, c); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	list, err := log.List(ctx, 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("List() = %+v, want newest first", list)
	}
	if list[0].Turns != 3 || list[1].Turns != 1 {
		t.Errorf("List() turn counts = %d, %d; want 3, 1", list[0].Turns, list[1].Turns)
	}
	if list[0].Title() != "ada & alice" {
		t.Errorf("Title() = %q", list[0].Title())
	}

	if limited, _ := log.List(ctx, 1); len(limited) != 1 {
		t.Errorf("List(1) returned %d conversations", len(limited))
	}

	id, err := log.Resolve(ctx, newer.ID.String()[:8])
	if err != nil || id != newer.ID {
		t.Errorf("Resolve(prefix) = %v, %v; want %v", id, err, newer.ID)
	}
	if _, err := log.Resolve(ctx, "zzzz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Resolve(missing) error = %v, want ErrNotFound", err)
	}
	for _, pattern := range []string{"%", "_", "________"} {
		if _, err := log.Resolve(ctx, pattern); !errors.Is(err, ErrNotFound) {
			t.Errorf("Resolve(%q) error = %v, want ErrNotFound", pattern, err)
		}
	}
	if _, err := log.Load(ctx, ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("Load(\"\") error = %v, want ErrNotFound", err)
	}
}
