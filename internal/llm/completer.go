// Package llm talks to completion backends: the owned Ollama server, or any
// OpenAI-compatible endpoint.
package llm

import (
	"context"

	"github.com/iksnae/agentroom/internal/config"
)

// Completer turns a rendered prompt into a single non-streamed completion
type Completer interface {
	Complete(ctx context.Context, model, prompt string, params config.Params) (string, error)
}

// CompleterFunc adapts a function to the Completer interface
type CompleterFunc func(ctx context.Context, model, prompt string, params config.Params) (string, error)

// Complete calls f
func (f CompleterFunc) Complete(ctx context.Context, model, prompt string, params config.Params) (string, error) {
	return f(ctx, model, prompt, params)
}
