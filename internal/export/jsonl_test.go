package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/iksnae/agentroom/internal"
)

func TestJSONLExporter_Export(t *testing.T) {
	tests := []struct {
		name      string
		conv      *internal.Conversation
		wantLines int
		want      []string
	}{
		{
			name:      "empty conversation",
			conv:      internal.CreateTestConversation(0),
			wantLines: 0,
		},
		{
			name:      "two turns",
			conv:      internal.CreateTestConversation(2),
			wantLines: 4,
			want: []string{
				`"role":"user"`,
				`"role":"assistant"`,
				`"speaker":"alice"`,
				`"timestamp":"2024-05-01 @ 14:03"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &JSONLExporter{}
			if err := exporter.Export(tt.conv, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			output := buf.String()
			lines := strings.Split(strings.TrimSpace(output), "\n")
			if output == "" {
				lines = nil
			}
			if len(lines) != tt.wantLines {
				t.Fatalf("Export() wrote %d lines, want %d", len(lines), tt.wantLines)
			}

			for i, line := range lines {
				var obj map[string]any
				if err := json.Unmarshal([]byte(line), &obj); err != nil {
					t.Errorf("line %d is not valid JSON: %v", i, err)
				}
			}
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Export() output missing %q", want)
				}
			}
		})
	}
}

func TestJSONLExporter_OrderAndTurnID(t *testing.T) {
	conv := internal.CreateTestConversation(1)
	var buf bytes.Buffer
	if err := (&JSONLExporter{}).Export(conv, &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var first, second jsonlLine
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if err := json.Unmarshal([]byte(lines[1]), &second); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if first.Role != internal.RoleUser || second.Role != internal.RoleAssistant {
		t.Errorf("roles = %v, %v; want request before response", first.Role, second.Role)
	}
	if first.TurnID != conv.Turns[0].ID.String() || second.TurnID != first.TurnID {
		t.Errorf("turn ids = %v, %v; want %v", first.TurnID, second.TurnID, conv.Turns[0].ID)
	}
}

func TestJSONLExporter_Extension(t *testing.T) {
	if got := (&JSONLExporter{}).Extension(); got != "jsonl" {
		t.Errorf("Extension() = %v, want jsonl", got)
	}
}
