// Package agent runs one agent's turns: it builds the prompt from the
// agent's instructions, recent history and recalled memories, asks the
// completion backend for a reply, and records the finished turn.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/iksnae/agentroom/internal/llm"
	"github.com/iksnae/agentroom/internal/memory"
)

// DefaultMemoryResults is how many memories are recalled per turn
const DefaultMemoryResults = 5

// Controller owns one agent's cache and memory for a session. It is not
// safe for concurrent use; turns are sequential.
type Controller struct {
	agent     config.Agent
	completer llm.Completer
	memory    memory.Collection
	cache     *internal.MessageCache
	k         int
	counter   internal.TokenCounter
	now       func() time.Time
}

// Option configures a Controller
type Option func(*Controller)

// WithMemoryResults sets how many memories are recalled per turn
func WithMemoryResults(k int) Option {
	return func(c *Controller) {
		if k > 0 {
			c.k = k
		}
	}
}

// WithTokenBudget trims the oldest history so the prompt fits the agent's
// context window, as measured by counter
func WithTokenBudget(counter internal.TokenCounter) Option {
	return func(c *Controller) {
		c.counter = counter
	}
}

// WithClock overrides the time source used for message timestamps
func WithClock(now func() time.Time) Option {
	return func(c *Controller) {
		c.now = now
	}
}

// New creates a controller. mem may be nil, in which case recall always
// comes back empty and turns are only cached.
func New(agent *config.Agent, completer llm.Completer, mem memory.Collection, cache *internal.MessageCache, opts ...Option) (*Controller, error) {
	if agent == nil {
		return nil, &internal.ConfigError{Field: "agent", Err: errors.New("agent is required")}
	}
	if completer == nil {
		return nil, &internal.ConfigError{Field: "completer", Err: errors.New("completer is required")}
	}
	if cache == nil {
		return nil, &internal.ConfigError{Field: "cache", Err: errors.New("cache is required")}
	}

	c := &Controller{
		agent:     *agent,
		completer: completer,
		memory:    mem,
		cache:     cache,
		k:         DefaultMemoryResults,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Name returns the agent's name
func (c *Controller) Name() string {
	return c.agent.Name()
}

// Agent returns the session's copy of the agent definition
func (c *Controller) Agent() config.Agent {
	return c.agent
}

// Cache returns the agent's recent-turn cache
func (c *Controller) Cache() *internal.MessageCache {
	return c.cache
}

// Focus returns the agent's current focus
func (c *Controller) Focus() string {
	return c.agent.Instructions.AssistantFocus
}

// SetFocus changes the agent's focus for the rest of the session
func (c *Controller) SetFocus(focus string) {
	c.agent.Instructions.AssistantFocus = focus
	internal.LogDebug("%s focus set to %q", c.Name(), focus)
}

// Prompt renders the prompt for input without calling the model. Memory
// recall is skipped when agentToAgent is set.
func (c *Controller) Prompt(ctx context.Context, input, speaker string, agentToAgent bool) string {
	script := c.agent.PromptScript()
	vars := internal.Vars{
		internal.VarUserInput: internal.Text(input),
		internal.VarUsername:  internal.Text(speaker),
		internal.VarContext:   nil,
	}
	if !agentToAgent {
		vars[internal.VarContext] = internal.Text(c.recall(ctx, input))
	}
	vars[internal.VarHistory] = internal.Text(c.history(script, vars))
	return internal.Render(script, vars)
}

// Generate produces the agent's reply to input from speaker. Nothing is
// recorded; see Commit and Respond.
func (c *Controller) Generate(ctx context.Context, input, speaker string, agentToAgent bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", cancelled(err)
	}

	prompt := c.Prompt(ctx, input, speaker, agentToAgent)
	internal.LogDebug("Prompt for %s:\n%s", c.Name(), prompt)

	model := c.agent.Instructions.Model
	text, err := c.completer.Complete(ctx, model, prompt, c.agent.Params)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", cancelled(ctx.Err())
		}
		if errors.Is(err, internal.ErrCompletionFailed) {
			return "", err
		}
		return "", &internal.CompletionError{Model: model, Err: err}
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", &internal.CompletionError{Model: model, Err: errors.New("empty response")}
	}
	return text, nil
}

// Commit caches the turn and stores it in memory under the turn's ID.
// Memory failures are logged; the turn stays cached.
func (c *Controller) Commit(ctx context.Context, turn internal.Turn) {
	c.cache.Add(turn)
	if c.memory == nil {
		return
	}
	meta := map[string]string{
		"request_speaker":  turn.Request.Speaker,
		"response_speaker": turn.Response.Speaker,
		"timestamp":        turn.Response.Timestamp,
	}
	if err := c.memory.Upsert(ctx, turn.ID.String(), turn.MemoryDocument(), meta); err != nil {
		internal.LogWarn("Failed to store turn in %s: %v", c.memory.Name(), err)
	}
}

// Respond generates a reply, builds the turn and commits it. On error nothing
// is recorded.
func (c *Controller) Respond(ctx context.Context, input, speaker string, agentToAgent bool) (internal.Turn, error) {
	asked := c.now()
	text, err := c.Generate(ctx, input, speaker, agentToAgent)
	if err != nil {
		return internal.Turn{}, err
	}
	turn := internal.NewTurn(
		internal.NewMessage(internal.RoleUser, speaker, input, asked),
		internal.NewMessage(internal.RoleAssistant, c.Name(), text, c.now()),
	)
	c.Commit(context.WithoutCancel(ctx), turn)
	return turn, nil
}

func (c *Controller) recall(ctx context.Context, input string) string {
	if c.memory == nil {
		return internal.NoResults
	}
	docs, err := c.memory.Query(ctx, input, c.k)
	if err != nil {
		internal.LogWarn("Memory recall from %s failed: %v", c.memory.Name(), err)
		return internal.NoResults
	}
	return internal.FormatMemoryHits(memory.Texts(docs))
}

// history formats the cached turns, dropping the oldest while the prompt
// would overflow the context window
func (c *Controller) history(script string, vars internal.Vars) string {
	in := c.agent.Instructions
	turns := c.cache.All()
	if c.counter == nil {
		return internal.FormatHistory(turns, in.StartToken, in.EndToken)
	}

	bare := make(internal.Vars, len(vars)+1)
	for k, v := range vars {
		bare[k] = v
	}
	bare[internal.VarHistory] = internal.Text("")
	reserve := c.agent.Params.NumPredict
	if reserve < 0 {
		reserve = 0
	}
	budget := c.agent.Params.NumCtx - reserve - c.counter.Count(internal.Render(script, bare))

	for len(turns) > 0 {
		h := internal.FormatHistory(turns, in.StartToken, in.EndToken)
		if c.counter.Count(h) <= budget {
			return h
		}
		turns = turns[1:]
	}
	if budget <= 0 {
		internal.LogWarn("Prompt for %s exceeds num_ctx before history is added", c.Name())
	}
	return ""
}

func cancelled(err error) error {
	return fmt.Errorf("%w: %w", internal.ErrUserCancelled, err)
}
