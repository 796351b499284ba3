package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/iksnae/agentroom/internal"
)

func TestMarkdownExporter_Export(t *testing.T) {
	withMarkup := internal.CreateTestConversation(0)
	withMarkup.Append(internal.CreateTestTurn("Is **this** bold?", "```\n**code**\n```"), internal.TestTime)

	tests := []struct {
		name    string
		conv    *internal.Conversation
		want    []string
		notWant []string
	}{
		{
			name: "basic conversation",
			conv: internal.CreateTestConversation(2),
			want: []string{
				"# ada & alice",
				"**Host:** ada (agent)",
				"**Guest:** alice  ",
				"**Started:** 2024-05-01 @ 14:03",
				"**Turns:** 2",
				"## Transcript",
				"**alice:** (2024-05-01 @ 14:03)",
				"Hello, how are you?",
				"**ada:** (2024-05-01 @ 14:03)",
				"I'm doing well, thank you!",
			},
		},
		{
			name: "escapes emphasis outside code",
			conv: withMarkup,
			want: []string{
				"Is \\*\\*this\\*\\* bold?",
				"```\n**code**\n```",
			},
		},
		{
			name:    "empty conversation",
			conv:    internal.CreateTestConversation(0),
			want:    []string{"**Turns:** 0"},
			notWant: []string{"**alice:**"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			exporter := &MarkdownExporter{}
			if err := exporter.Export(tt.conv, &buf); err != nil {
				t.Fatalf("Export() error = %v", err)
			}

			output := buf.String()
			for _, want := range tt.want {
				if !strings.Contains(output, want) {
					t.Errorf("Export() output missing %q\n%s", want, output)
				}
			}
			for _, notWant := range tt.notWant {
				if strings.Contains(output, notWant) {
					t.Errorf("Export() output should not contain %q", notWant)
				}
			}
		})
	}
}

func TestMarkdownExporter_Separators(t *testing.T) {
	var buf bytes.Buffer
	if err := (&MarkdownExporter{}).Export(internal.CreateTestConversation(3), &buf); err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	// one rule under the header, then one between each pair of turns
	if got := strings.Count(buf.String(), "---\n\n"); got != 3 {
		t.Errorf("separator count = %d, want 3", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "plain", want: "plain"},
		{in: "__init__", want: "\\_\\_init\\_\\_"},
		{in: "```go\na**b\n```\n**x**", want: "```go\na**b\n```\n\\*\\*x\\*\\*"},
	}
	for _, tt := range tests {
		if got := escapeMarkdown(tt.in); got != tt.want {
			t.Errorf("escapeMarkdown(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
