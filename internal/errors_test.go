package internal

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestTypedErrors_MatchTaxonomy(t *testing.T) {
	inner := errors.New("underlying")

	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{
			name:     "config error",
			err:      &ConfigError{Field: "cache_capacity", Err: inner},
			sentinel: ErrInvalidConfiguration,
			contains: "cache_capacity",
		},
		{
			name:     "port error",
			err:      &PortError{Start: 4200, End: 4300},
			sentinel: ErrNoPortAvailable,
			contains: "4200-4300",
		},
		{
			name:     "completion error with status",
			err:      &CompletionError{Model: "llama3", StatusCode: 500, Err: inner},
			sentinel: ErrCompletionFailed,
			contains: "status 500",
		},
		{
			name:     "completion error without status",
			err:      &CompletionError{Model: "llama3", Err: inner},
			sentinel: ErrCompletionFailed,
			contains: "llama3",
		},
		{
			name:     "memory error",
			err:      &MemoryError{Collection: "ada-bob", Op: "query", Err: inner},
			sentinel: ErrMemoryUnavailable,
			contains: "ada-bob",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("errors.Is(%v, %v) = false, want true", tt.err, tt.sentinel)
			}
			wrapped := fmt.Errorf("turn: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Errorf("errors.Is(wrapped, %v) = false, want true", tt.sentinel)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("Error() = %q, want it to contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}

func TestTypedErrors_DoNotCrossMatch(t *testing.T) {
	err := &CompletionError{Model: "llama3", Err: errors.New("timeout")}
	if errors.Is(err, ErrMemoryUnavailable) {
		t.Error("CompletionError should not match ErrMemoryUnavailable")
	}
	if errors.Is(err, ErrInvalidConfiguration) {
		t.Error("CompletionError should not match ErrInvalidConfiguration")
	}
}

func TestStorageError(t *testing.T) {
	originalErr := errors.New("permission denied")
	err := &StorageError{
		Path: "/test/agentroom.db",
		Op:   "open",
		Err:  originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "storage error") {
		t.Errorf("StorageError.Error() should contain 'storage error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "/test/agentroom.db") {
		t.Errorf("StorageError.Error() should contain path, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("StorageError.Unwrap() should return original error")
	}
}

func TestExportError(t *testing.T) {
	originalErr := errors.New("write failed")
	err := &ExportError{
		Format: "jsonl",
		Path:   "/out/conv.jsonl",
		Err:    originalErr,
	}

	errorMsg := err.Error()
	if !strings.Contains(errorMsg, "export error") {
		t.Errorf("ExportError.Error() should contain 'export error', got: %q", errorMsg)
	}
	if !strings.Contains(errorMsg, "jsonl") {
		t.Errorf("ExportError.Error() should contain format, got: %q", errorMsg)
	}
	if !errors.Is(err, originalErr) {
		t.Error("ExportError.Unwrap() should return original error")
	}
}
