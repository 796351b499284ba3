// Package tools is the static registry of helper functions a user can run
// from a chat session.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrToolNotFound is returned when calling an unregistered tool
var ErrToolNotFound = errors.New("tool not found")

// Param describes one positional argument of a tool
type Param struct {
	Name        string
	Description string
}

// Func is a tool implementation. args has one entry per Param.
type Func func(ctx context.Context, args []string) (string, error)

// Tool is a registered helper
type Tool struct {
	Name        string
	Description string
	Params      []Param
	Fn          Func
}

// Usage renders the tool's call signature, e.g. "word_count <text>"
func (t Tool) Usage() string {
	parts := []string{t.Name}
	for _, p := range t.Params {
		parts = append(parts, "<"+p.Name+">")
	}
	return strings.Join(parts, " ")
}

// Registry maps tool names to tools
type Registry struct {
	tools map[string]Tool
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Names must be unique.
func (r *Registry) Register(t Tool) error {
	if t.Name == "" || t.Fn == nil {
		return fmt.Errorf("tool needs a name and a function")
	}
	if _, ok := r.tools[t.Name]; ok {
		return fmt.Errorf("tool %q already registered", t.Name)
	}
	r.tools[t.Name] = t
	return nil
}

// MustRegister is Register for startup wiring, panicking on a duplicate
func (r *Registry) MustRegister(t Tool) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Get looks up a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns the tools sorted by name
func (r *Registry) List() []Tool {
	list := make([]Tool, 0, len(r.tools))
	for _, t := range r.tools {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

// Call runs a tool. A tool with a single parameter receives all words of
// args joined back together; otherwise args must match the parameters.
func (r *Registry) Call(ctx context.Context, name string, args []string) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	if len(t.Params) == 1 {
		args = []string{strings.Join(args, " ")}
	}
	if len(args) != len(t.Params) || (len(t.Params) == 1 && strings.TrimSpace(args[0]) == "") {
		return "", fmt.Errorf("usage: %s", t.Usage())
	}
	return t.Fn(ctx, args)
}
