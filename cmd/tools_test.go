package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/iksnae/agentroom/internal/tools"
)

func TestToolsCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    []string
		wantErr error
	}{
		{
			name: "list",
			args: []string{"tools"},
			want: []string{"4 tool(s)", "word_count <text>", "remove_references <text>", "wikipedia_summary <query>", "wolfram_query_url <query>"},
		},
		{
			name: "run word_count",
			args: []string{"tools", "word_count", "one", "two", "three"},
			want: []string{"3\n"},
		},
		{
			name: "run remove_references",
			args: []string{"tools", "remove_references", "Go[1]", "is", "fun[23]"},
			want: []string{"Go is fun\n"},
		},
		{
			name:    "unknown tool",
			args:    []string{"tools", "teleport", "home"},
			wantErr: tools.ErrToolNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("tools error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("tools error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(out, want) {
					t.Errorf("tools output missing %q:\n%s", want, out)
				}
			}
		})
	}
}
