package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/user"
	"strings"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/agent"
	"github.com/iksnae/agentroom/internal/config"
	"github.com/iksnae/agentroom/internal/convlog"
	"github.com/iksnae/agentroom/internal/llm"
	"github.com/iksnae/agentroom/internal/memory"
	"github.com/iksnae/agentroom/internal/ollama"
	"github.com/spf13/cobra"
)

var timeNow = time.Now

// defaultUsername is the login name, used when --user is not given
func defaultUsername() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return strings.ToLower(u.Username)
	}
	if name := os.Getenv("USER"); name != "" {
		return strings.ToLower(name)
	}
	return "user"
}

var (
	serverPort  int
	serverPorts = ollama.PortRange{Start: ollama.DefaultPortStart, End: ollama.DefaultPortEnd}
)

// addServerFlags registers the flags that pick or start an inference server
func addServerFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&serverPort, "port", 0, "Use an Ollama server already listening on this port")
	cmd.Flags().Var(&serverPorts, "ports", "Port range searched for a free port when starting a server")
}

// portRange prefers --ports, then the configured range
func portRange(cmd *cobra.Command, cfg *config.Config) ollama.PortRange {
	if cmd.Flags().Changed("ports") {
		return serverPorts
	}
	return ollama.PortRange{Start: cfg.Ollama.PortStart, End: cfg.Ollama.PortEnd}
}

// startServer launches an owned Ollama server on the first free port in r
func startServer(ctx context.Context, cfg *config.Config, r ollama.PortRange) (*ollama.Server, error) {
	var (
		binary string
		port   int
		srv    *ollama.Server
	)
	steps := []internal.ProgressStep{
		{Message: "Locating the Ollama binary", Fn: func() error {
			var err error
			if binary, err = ollama.DetectBinary(cfg.Ollama.Binary); err != nil {
				return &internal.ConfigError{Field: "ollama.binary", Err: err}
			}
			return nil
		}},
		{Message: fmt.Sprintf("Finding a free port in %s", r.String()), Fn: func() error {
			var err error
			port, err = ollama.FindFreePort(r.Start, r.End)
			return err
		}},
		{Message: "Starting Ollama", Fn: func() error {
			srv = ollama.NewServer(binary, port)
			srv.StopGrace = cfg.Ollama.StopGrace
			srv.StartupTimeout = cfg.Ollama.StartupTimeout
			if verbose {
				srv.Output = os.Stderr
			}
			return srv.Start(ctx)
		}},
	}
	if err := internal.ShowProgressWithSteps(ctx, steps); err != nil {
		return nil, err
	}
	return srv, nil
}

// backend is the completion endpoint of one session
type backend struct {
	completer llm.Completer
	server    *ollama.Server // nil unless this session started it
}

// openBackend selects the completer: the OpenAI-compatible API, a server on
// --port, or an owned server on a free port
func openBackend(ctx context.Context, cmd *cobra.Command, cfg *config.Config) (*backend, error) {
	if cfg.Completion.Backend == "openai" {
		internal.LogInfo("Using OpenAI-compatible completions at %s", cfg.Completion.OpenAIBaseURL)
		return &backend{completer: llm.NewOpenAIClient(cfg.Completion.OpenAIBaseURL, cfg.Completion.OpenAIKey)}, nil
	}

	if serverPort > 0 {
		client := llm.NewClient(llm.LocalURL(serverPort), cfg.Completion.Timeout)
		if err := client.Ping(ctx); err != nil {
			return nil, fmt.Errorf("no Ollama server on port %d: %w", serverPort, err)
		}
		return &backend{completer: client}, nil
	}

	srv, err := startServer(ctx, cfg, portRange(cmd, cfg))
	if err != nil {
		return nil, err
	}
	return &backend{
		completer: llm.NewClient(srv.URL(), cfg.Completion.Timeout),
		server:    srv,
	}, nil
}

// Close stops an owned server
func (b *backend) Close() {
	if b.server == nil {
		return
	}
	if err := b.server.Stop(); err != nil {
		internal.LogWarn("Failed to stop Ollama server: %v", err)
	} else {
		internal.LogInfo("Stopped Ollama server on port %d", b.server.Port)
	}
}

// spinning shows a spinner while each completion runs
func spinning(c llm.Completer) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, model, prompt string, params config.Params) (string, error) {
		var text string
		err := internal.ShowSpinner(ctx, model+" is thinking...", func() error {
			var err error
			text, err = c.Complete(ctx, model, prompt, params)
			return err
		})
		return text, err
	})
}

// workspace holds the on-disk state shared by commands: agent files, the
// sqlite database, the conversation log and the memory store
type workspace struct {
	cfg    *config.Config
	agents *config.Store
	db     *sql.DB
	log    *convlog.Log
	memory memory.Store
	memErr error
}

func openWorkspace(ctx context.Context, cfg *config.Config) (*workspace, error) {
	db, err := internal.OpenDatabase(cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	log, err := convlog.New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	w := &workspace{
		cfg:    cfg,
		agents: config.NewStore(cfg.Home),
		db:     db,
		log:    log,
	}
	w.memory, w.memErr = memory.Open(ctx, cfg.Memory, db)
	return w, nil
}

// warnWithoutMemory tells the user a session runs without long-term memory
func (w *workspace) warnWithoutMemory() {
	if w.memErr != nil {
		internal.PrintWarning(fmt.Sprintf("Long-term memory unavailable, agents will not remember this session: %v", w.memErr))
	}
}

// requireMemory returns the memory store or the reason it could not be opened
func (w *workspace) requireMemory() (memory.Store, error) {
	if w.memory == nil {
		return nil, w.memErr
	}
	return w.memory, nil
}

// controller builds a turn controller for a loaded agent talking to counterparty.
// Agents run without memory when the store or the collection is unavailable.
func (w *workspace) controller(ctx context.Context, a *config.Agent, counterparty string, completer llm.Completer) (*agent.Controller, error) {
	var coll memory.Collection
	if w.memory != nil {
		c, err := w.memory.GetOrCreate(ctx, memory.CollectionName(a.Name(), counterparty))
		if err != nil {
			internal.LogWarn("Memory for %s unavailable: %v", a.Name(), err)
		} else {
			coll = c
		}
	}

	cache, err := internal.NewMessageCache(w.cfg.Chat.CacheCapacity)
	if err != nil {
		return nil, err
	}

	opts := []agent.Option{agent.WithMemoryResults(w.cfg.Memory.Results)}
	if w.cfg.Completion.TokenBudget {
		opts = append(opts, agent.WithTokenBudget(internal.NewTokenCounter(w.cfg.Completion.Encoding)))
	}
	return agent.New(a, completer, coll, cache, opts...)
}

func (w *workspace) Close() {
	if w.memory != nil {
		if err := w.memory.Close(); err != nil {
			internal.LogWarn("Failed to close memory store: %v", err)
		}
	}
	if err := w.db.Close(); err != nil {
		internal.LogWarn("Failed to close database: %v", err)
	}
}

// withWorkspace loads the configuration and opens the workspace for fn
func withWorkspace(ctx context.Context, fn func(w *workspace) error) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	w, err := openWorkspace(ctx, cfg)
	if err != nil {
		return err
	}
	defer w.Close()
	return fn(w)
}
