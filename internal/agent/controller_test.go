package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/iksnae/agentroom/internal/llm"
	"github.com/iksnae/agentroom/internal/memory"
)

// fakeCollection records calls and returns canned results
type fakeCollection struct {
	docs      []memory.Document
	queryErr  error
	upsertErr error
	queries   int
	upserts   map[string]string
}

func (f *fakeCollection) Name() string { return "ada-alice" }

func (f *fakeCollection) Upsert(ctx context.Context, id, doc string, meta map[string]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.upserts == nil {
		f.upserts = make(map[string]string)
	}
	f.upserts[id] = doc
	return nil
}

func (f *fakeCollection) Query(ctx context.Context, text string, k int) ([]memory.Document, error) {
	f.queries++
	return f.docs, f.queryErr
}

func (f *fakeCollection) Count(ctx context.Context) (int, error) {
	return len(f.upserts), nil
}

// recorder is a completer that remembers the prompts it saw
type recorder struct {
	reply   string
	err     error
	prompts []string
}

func (r *recorder) Complete(ctx context.Context, model, prompt string, params config.Params) (string, error) {
	r.prompts = append(r.prompts, prompt)
	return r.reply, r.err
}

func newController(t *testing.T, completer llm.Completer, mem memory.Collection, opts ...Option) *Controller {
	t.Helper()
	cache, err := internal.NewMessageCache(internal.DefaultCacheCapacity)
	if err != nil {
		t.Fatalf("NewMessageCache() error = %v", err)
	}
	opts = append([]Option{WithClock(func() time.Time { return internal.TestTime })}, opts...)
	c, err := New(config.DefaultAgent("ada", "llama3"), completer, mem, cache, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestController_Respond(t *testing.T) {
	completer := &recorder{reply: "  Lovely to meet you!\n"}
	mem := &fakeCollection{}
	c := newController(t, completer, mem)

	turn, err := c.Respond(context.Background(), "Hi Ada", "alice", false)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	if turn.Request.Speaker != "alice" || turn.Request.Role != internal.RoleUser || turn.Request.Content != "Hi Ada" {
		t.Errorf("Respond() request = %+v", turn.Request)
	}
	if turn.Response.Speaker != "ada" || turn.Response.Role != internal.RoleAssistant {
		t.Errorf("Respond() response = %+v, want assistant message from ada", turn.Response)
	}
	if turn.Response.Content != "Lovely to meet you!" {
		t.Errorf("Respond() content = %q, want trimmed reply", turn.Response.Content)
	}
	if turn.Response.Timestamp != "2024-05-01 @ 14:03" {
		t.Errorf("Respond() timestamp = %q", turn.Response.Timestamp)
	}

	if c.Cache().Len() != 1 {
		t.Errorf("cache length = %d, want 1", c.Cache().Len())
	}
	if mem.upserts[turn.ID.String()] != turn.MemoryDocument() {
		t.Errorf("memory upsert = %q, want the turn's memory document", mem.upserts[turn.ID.String()])
	}

	prompt := completer.prompts[0]
	for _, want := range []string{"Context from memory: No results found.", "<|im_start|>alice: \nHi Ada<|im_end|>", "<|im_start|>ada: \n"} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestController_HistoryAndRecall(t *testing.T) {
	completer := &recorder{reply: "ok"}
	mem := &fakeCollection{docs: []memory.Document{
		{ID: "old", Text: "alice @ 2024-04-30 @ 09:00: I keep bees\nada @ 2024-04-30 @ 09:00: How wonderful"},
	}}
	c := newController(t, completer, mem)

	if _, err := c.Respond(context.Background(), "first question", "alice", false); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if _, err := c.Respond(context.Background(), "second question", "alice", false); err != nil {
		t.Fatalf("Respond() error = %v", err)
	}

	second := completer.prompts[1]
	if !strings.Contains(second, "<|im_start|>alice (2024-05-01 @ 14:03):\nfirst question<|im_end|>") {
		t.Errorf("second prompt should carry the first turn in its history:\n%s", second)
	}
	if !strings.Contains(second, "alice (2024-04-30 @ 09:00):\nI keep bees") {
		t.Errorf("second prompt should carry the recalled memory:\n%s", second)
	}
	if strings.Count(second, "second question") != 1 {
		t.Errorf("input should appear exactly once:\n%s", second)
	}
}

func TestController_CompletionFailure(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{name: "typed failure", err: &internal.CompletionError{Model: "llama3", StatusCode: 500, Err: errors.New("boom")}},
		{name: "plain error", err: errors.New("connection refused")},
		{name: "empty reply", reply: ""},
		{name: "blank reply", reply: " \n\t "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mem := &fakeCollection{}
			c := newController(t, &recorder{reply: tt.reply, err: tt.err}, mem)
			c.Cache().Add(internal.CreateTestTurn("earlier", "reply"))

			_, err := c.Respond(context.Background(), "Hi", "alice", false)
			if !errors.Is(err, internal.ErrCompletionFailed) {
				t.Fatalf("Respond() error = %v, want ErrCompletionFailed", err)
			}
			if c.Cache().Len() != 1 {
				t.Errorf("cache length = %d, want unchanged 1", c.Cache().Len())
			}
			if len(mem.upserts) != 0 {
				t.Errorf("memory received %d upserts, want none", len(mem.upserts))
			}
		})
	}
}

func TestController_Cancelled(t *testing.T) {
	completer := &recorder{reply: "never"}
	c := newController(t, completer, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Respond(ctx, "Hi", "alice", false)
	if !errors.Is(err, internal.ErrUserCancelled) {
		t.Fatalf("Respond() error = %v, want ErrUserCancelled", err)
	}
	if len(completer.prompts) != 0 {
		t.Error("completer should not be called after cancellation")
	}
	if c.Cache().Len() != 0 {
		t.Errorf("cache length = %d, want 0", c.Cache().Len())
	}
}

func TestController_CancelledDuringCompletion(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	completer := llm.CompleterFunc(func(ctx context.Context, model, prompt string, params config.Params) (string, error) {
		cancel()
		return "", ctx.Err()
	})
	c := newController(t, completer, nil)

	_, err := c.Respond(ctx, "Hi", "alice", false)
	if !errors.Is(err, internal.ErrUserCancelled) {
		t.Errorf("Respond() error = %v, want ErrUserCancelled", err)
	}
}

func TestController_CancelAfterCompletionStillCommits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	completer := llm.CompleterFunc(func(ctx context.Context, model, prompt string, params config.Params) (string, error) {
		cancel()
		return "Done in time.", nil
	})
	mem := &fakeCollection{}
	c := newController(t, completer, mem)

	turn, err := c.Respond(ctx, "Hi", "alice", false)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if c.Cache().Len() != 1 {
		t.Errorf("cache length = %d, want 1", c.Cache().Len())
	}
	if _, ok := mem.upserts[turn.ID.String()]; !ok {
		t.Errorf("memory upserts = %v, want turn %s", mem.upserts, turn.ID)
	}
}

func TestController_AgentToAgentSkipsMemory(t *testing.T) {
	completer := &recorder{reply: "Hello, host."}
	mem := &fakeCollection{docs: []memory.Document{{Text: "bob @ x: y"}}}
	c := newController(t, completer, mem)

	if _, err := c.Generate(context.Background(), "Welcome!", "bob", true); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if mem.queries != 0 {
		t.Errorf("memory queried %d times, want 0", mem.queries)
	}
	if strings.Contains(completer.prompts[0], "Context from memory") || strings.Contains(completer.prompts[0], "<|mem_start|>") {
		t.Errorf("prompt should drop the memory line:\n%s", completer.prompts[0])
	}
	if c.Cache().Len() != 0 {
		t.Error("Generate() must not record anything")
	}
}

func TestController_MemoryFailuresDegrade(t *testing.T) {
	completer := &recorder{reply: "fine"}
	mem := &fakeCollection{
		queryErr:  &internal.MemoryError{Collection: "ada-alice", Op: "query", Err: errors.New("down")},
		upsertErr: &internal.MemoryError{Collection: "ada-alice", Op: "upsert", Err: errors.New("down")},
	}
	c := newController(t, completer, mem)

	if _, err := c.Respond(context.Background(), "Hi", "alice", false); err != nil {
		t.Fatalf("Respond() error = %v, want memory failures swallowed", err)
	}
	if !strings.Contains(completer.prompts[0], "Context from memory: No results found.") {
		t.Errorf("prompt should fall back to no results:\n%s", completer.prompts[0])
	}
	if c.Cache().Len() != 1 {
		t.Errorf("cache length = %d, want 1", c.Cache().Len())
	}
}

func TestController_TokenBudget(t *testing.T) {
	completer := &recorder{reply: "ok"}
	cache, _ := internal.NewMessageCache(10)
	agent := config.DefaultAgent("ada", "llama3")
	agent.Instructions.PromptScript = "$history\n$user_input"
	agent.Params.NumCtx = 30
	agent.Params.NumPredict = 0

	c, err := New(agent, completer, nil, cache, WithTokenBudget(internal.WordCounter{}))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	for _, q := range []string{"q1", "q2", "q3"} {
		cache.Add(internal.CreateTestTurn(q, "a"+q[1:]))
	}

	if _, err := c.Generate(context.Background(), "hi", "alice", true); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	prompt := completer.prompts[0]
	if strings.Contains(prompt, "q1") {
		t.Errorf("oldest turn should be trimmed:\n%s", prompt)
	}
	if !strings.Contains(prompt, "q2") || !strings.Contains(prompt, "q3") {
		t.Errorf("newest turns should be kept:\n%s", prompt)
	}
}

func TestController_Focus(t *testing.T) {
	completer := &recorder{reply: "ok"}
	c := newController(t, completer, nil)

	c.SetFocus("astronomy")
	if c.Focus() != "astronomy" {
		t.Errorf("Focus() = %q, want astronomy", c.Focus())
	}
	_, _ = c.Generate(context.Background(), "Hi", "alice", false)
	if !strings.Contains(completer.prompts[0], "Your current focus should be: astronomy") {
		t.Errorf("prompt should carry the new focus:\n%s", completer.prompts[0])
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	cache, _ := internal.NewMessageCache(2)
	agent := config.DefaultAgent("ada", "llama3")
	completer := &recorder{}

	tests := []struct {
		name      string
		agent     *config.Agent
		completer llm.Completer
		cache     *internal.MessageCache
	}{
		{name: "no agent", completer: completer, cache: cache},
		{name: "no completer", agent: agent, cache: cache},
		{name: "no cache", agent: agent, completer: completer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.agent, tt.completer, nil, tt.cache)
			if !errors.Is(err, internal.ErrInvalidConfiguration) {
				t.Errorf("New() error = %v, want ErrInvalidConfiguration", err)
			}
		})
	}
}
