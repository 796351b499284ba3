package chat

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/agent"
	"github.com/iksnae/agentroom/internal/tools"
)

// Recorder persists each completed turn
type Recorder interface {
	Record(ctx context.Context, conv *internal.Conversation, turn internal.Turn) error
}

// WaitFunc runs fn while the user waits for it, e.g. behind a spinner
type WaitFunc func(ctx context.Context, message string, fn func() error) error

// Session is a line-oriented chat between one user and one agent
type Session struct {
	Controller   *agent.Controller
	Username     string
	Conversation *internal.Conversation
	Tools        *tools.Registry
	Recorder     Recorder
	Typewriter   internal.Typewriter
	Wait         WaitFunc
	In           io.Reader
	Out          io.Writer
	Now          func() time.Time
}

// Run reads lines until exit, end of input or cancellation. Per-turn failures
// are reported and the loop continues.
func (s *Session) Run(ctx context.Context) error {
	if s.Controller == nil || s.Conversation == nil || s.In == nil || s.Out == nil {
		return &internal.ConfigError{Field: "chat", Err: errors.New("controller, conversation, input and output are required")}
	}

	done := make(chan struct{})
	defer close(done)
	lines := readLines(done, s.In)
	for {
		s.printf("%s: ", s.Username)

		var line string
		select {
		case <-ctx.Done():
			s.printf("\n")
			return nil
		case l, ok := <-lines:
			if !ok {
				s.printf("\n")
				return nil
			}
			line = strings.TrimSpace(l)
		}

		switch {
		case line == "":
			continue
		case line == "exit" || line == "quit":
			return nil
		case strings.HasPrefix(line, "!"):
			s.command(ctx, line)
			continue
		}

		if err := s.turn(ctx, line); err != nil {
			if errors.Is(err, internal.ErrUserCancelled) {
				s.printf("\n")
				return nil
			}
			s.printf("Error: %v\n", err)
		}
	}
}

func (s *Session) turn(ctx context.Context, input string) error {
	var turn internal.Turn
	respond := func() error {
		var err error
		turn, err = s.Controller.Respond(ctx, input, s.Username, false)
		return err
	}

	var err error
	if s.Wait != nil {
		err = s.Wait(ctx, s.Controller.Name()+" is thinking...", respond)
	} else {
		err = respond()
	}
	if err != nil {
		return err
	}

	s.Conversation.Append(turn, s.now())
	if s.Recorder != nil {
		if err := s.Recorder.Record(context.WithoutCancel(ctx), s.Conversation, turn); err != nil {
			internal.LogWarn("Failed to record turn: %v", err)
		}
	}

	s.printf("%s: ", s.Controller.Name())
	if err := s.Typewriter.Write(ctx, s.Out, turn.Response.Content); err != nil && ctx.Err() == nil {
		return err
	}
	s.printf("\n")
	return nil
}

func (s *Session) command(ctx context.Context, line string) {
	name, rest, _ := strings.Cut(strings.TrimPrefix(line, "!"), " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "focus":
		if rest == "" {
			s.printf("Focus: %s\n", s.Controller.Focus())
			return
		}
		s.Controller.SetFocus(rest)
		s.printf("Focus set to: %s\n", rest)
	case "tools":
		if s.Tools == nil || len(s.Tools.List()) == 0 {
			s.printf("No tools registered.\n")
			return
		}
		for _, t := range s.Tools.List() {
			s.printf("  %-40s %s\n", t.Usage(), t.Description)
		}
	case "tool":
		if s.Tools == nil {
			s.printf("Error: no tools registered\n")
			return
		}
		toolName, args, _ := strings.Cut(rest, " ")
		if toolName == "" {
			s.printf("Error: usage: !tool <name> <args>\n")
			return
		}
		out, err := s.Tools.Call(ctx, toolName, strings.Fields(args))
		if err != nil {
			s.printf("Error: %v\n", err)
			return
		}
		s.printf("%s\n", out)
	case "history":
		turns := s.Controller.Cache().All()
		if len(turns) == 0 {
			s.printf("No history yet.\n")
			return
		}
		s.printf("%s", internal.FormatHistory(turns, "", ""))
	default:
		s.printf("Error: unknown command !%s (try !focus, !tools, !tool, !history)\n", name)
	}
}

func (s *Session) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Session) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.Out, format, args...)
}

// readLines feeds lines from r until EOF or done. A read blocked in r keeps
// the goroutine alive until r returns.
func readLines(done <-chan struct{}, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 64*1024), 1024*1024)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			internal.LogWarn("Failed to read input: %v", err)
		}
	}()
	return lines
}
