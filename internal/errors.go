package internal

import (
	"errors"
	"fmt"
)

// Error taxonomy. Typed errors below match these through errors.Is.
var (
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNoPortAvailable      = errors.New("no port available")
	ErrCompletionFailed     = errors.New("completion failed")
	ErrMemoryUnavailable    = errors.New("memory unavailable")
	ErrUserCancelled        = errors.New("cancelled by user")
)

// ConfigError represents a bad or missing configuration value
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration [%s]: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// PortError is returned when no port in a range can be bound
type PortError struct {
	Start int
	End   int
}

func (e *PortError) Error() string {
	return fmt.Sprintf("no available ports found in the range %d-%d", e.Start, e.End)
}

func (e *PortError) Is(target error) bool {
	return target == ErrNoPortAvailable
}

// CompletionError represents a failed call to the completion endpoint
type CompletionError struct {
	Model      string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *CompletionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("completion failed [%s] status %d: %v", e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("completion failed [%s]: %v", e.Model, e.Err)
}

func (e *CompletionError) Unwrap() error {
	return e.Err
}

func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletionFailed
}

// MemoryError represents a failed read or write against a memory collection
type MemoryError struct {
	Collection string
	Op         string // "open", "upsert", "query", "delete", "rename"
	Err        error
}

func (e *MemoryError) Error() string {
	return fmt.Sprintf("memory error: %s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *MemoryError) Unwrap() error {
	return e.Err
}

func (e *MemoryError) Is(target error) bool {
	return target == ErrMemoryUnavailable
}

// StorageError represents errors accessing the local database or agent files
type StorageError struct {
	Path string
	Op   string // "open", "read", "write", "migrate"
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
