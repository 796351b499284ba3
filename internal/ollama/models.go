package ollama

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

// Models runs the server binary's model administration commands
type Models struct {
	Binary string
	// Host targets a specific server; empty uses the binary's default
	Host   string
	Stdout io.Writer
	Stderr io.Writer
}

// Pull downloads a model
func (m *Models) Pull(ctx context.Context, name string) error {
	return m.run(ctx, m.Stdout, "pull", name)
}

// Remove deletes a model
func (m *Models) Remove(ctx context.Context, name string) error {
	return m.run(ctx, m.Stdout, "rm", name)
}

// Copy duplicates a model under a new name
func (m *Models) Copy(ctx context.Context, src, dst string) error {
	return m.run(ctx, m.Stdout, "cp", src, dst)
}

// List returns the binary's model listing
func (m *Models) List(ctx context.Context) (string, error) {
	var out bytes.Buffer
	err := m.run(ctx, &out, "list")
	return out.String(), err
}

func (m *Models) run(ctx context.Context, stdout io.Writer, args ...string) error {
	cmd := exec.CommandContext(ctx, m.Binary, args...)
	cmd.Env = os.Environ()
	if m.Host != "" {
		cmd.Env = append(cmd.Env, "OLLAMA_HOST="+m.Host)
	}
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	if m.Stderr != nil {
		cmd.Stderr = io.MultiWriter(m.Stderr, &stderr)
	} else {
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%s %s: %w: %s", m.Binary, strings.Join(args, " "), err, msg)
		}
		return fmt.Errorf("%s %s: %w", m.Binary, strings.Join(args, " "), err)
	}
	return nil
}
