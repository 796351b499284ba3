package ollama

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"syscall"
	"time"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/llm"
)

// Server lifecycle defaults
const (
	DefaultStopGrace      = 5 * time.Second
	DefaultStartupTimeout = 30 * time.Second
)

// Server is an "ollama serve" process bound to a private port
type Server struct {
	Binary         string
	Port           int
	StopGrace      time.Duration
	StartupTimeout time.Duration
	// Output receives the server's stdout and stderr; nil discards them
	Output io.Writer

	cmd     *exec.Cmd
	exited  chan struct{}
	waitErr error
}

// NewServer prepares a server on port; call Start to launch it
func NewServer(binary string, port int) *Server {
	return &Server{
		Binary:         binary,
		Port:           port,
		StopGrace:      DefaultStopGrace,
		StartupTimeout: DefaultStartupTimeout,
	}
}

// Host is the OLLAMA_HOST value for this server
func (s *Server) Host() string {
	return fmt.Sprintf("127.0.0.1:%d", s.Port)
}

// URL is the server's base URL
func (s *Server) URL() string {
	return llm.LocalURL(s.Port)
}

// Running reports whether the process has been started and not yet reaped
func (s *Server) Running() bool {
	if s.exited == nil {
		return false
	}
	select {
	case <-s.exited:
		return false
	default:
		return true
	}
}

// Start launches the server and waits until it answers on its port
func (s *Server) Start(ctx context.Context) error {
	if s.cmd != nil {
		return errors.New("server already started")
	}

	cmd := exec.Command(s.Binary, "serve")
	cmd.Env = append(os.Environ(), "OLLAMA_HOST="+s.Host())
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	out := s.Output
	if out == nil {
		out = io.Discard
	}
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", s.Binary, err)
	}
	s.cmd = cmd
	s.exited = make(chan struct{})
	go func() {
		s.waitErr = cmd.Wait()
		close(s.exited)
	}()
	internal.LogInfo("Started %s serve (pid %d) on %s", s.Binary, cmd.Process.Pid, s.Host())

	if err := s.waitReady(ctx); err != nil {
		_ = s.Stop()
		return err
	}
	return nil
}

func (s *Server) waitReady(ctx context.Context) error {
	timeout := s.StartupTimeout
	if timeout <= 0 {
		timeout = DefaultStartupTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client := llm.NewClient(s.URL(), time.Second)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		if err := client.Ping(ctx); err == nil {
			internal.LogDebug("Server on %s is ready", s.Host())
			return nil
		}
		select {
		case <-s.exited:
			return fmt.Errorf("%s serve exited during startup: %v", s.Binary, s.waitErr)
		case <-ctx.Done():
			return fmt.Errorf("server on %s not ready: %w", s.Host(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// Stop sends SIGTERM to the server's process group, then SIGKILL if it has
// not exited within the grace period. Stopping a stopped server is a no-op.
func (s *Server) Stop() error {
	if s.cmd == nil || !s.Running() {
		return nil
	}
	pgid := -s.cmd.Process.Pid
	if err := syscall.Kill(pgid, syscall.SIGTERM); err != nil {
		internal.LogDebug("SIGTERM failed, killing: %v", err)
		_ = syscall.Kill(pgid, syscall.SIGKILL)
	}

	grace := s.StopGrace
	if grace <= 0 {
		grace = DefaultStopGrace
	}
	select {
	case <-s.exited:
		internal.LogInfo("Server on %s stopped", s.Host())
		return nil
	case <-time.After(grace):
	}

	internal.LogWarn("Server on %s did not stop within %s, killing it", s.Host(), grace)
	if err := syscall.Kill(pgid, syscall.SIGKILL); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("failed to kill server: %w", err)
	}
	<-s.exited
	return nil
}
