package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agentroom/internal"
)

// MarkdownExporter exports conversations in Markdown format
type MarkdownExporter struct{}

// Export writes a conversation as a Markdown transcript
func (e *MarkdownExporter) Export(conv *internal.Conversation, w io.Writer) error {
	_, _ = fmt.Fprintf(w, "# %s\n\n", conv.Title())
	_, _ = fmt.Fprintf(w, "**Conversation:** %s  \n", conv.ID)
	_, _ = fmt.Fprintf(w, "**Host:** %s%s  \n", conv.Host.Name, botSuffix(conv.Host))
	_, _ = fmt.Fprintf(w, "**Guest:** %s%s  \n", conv.Guest.Name, botSuffix(conv.Guest))
	_, _ = fmt.Fprintf(w, "**Started:** %s  \n", conv.CreatedAt.Format(internal.TimestampLayout))
	_, _ = fmt.Fprintf(w, "**Turns:** %d\n\n", len(conv.Turns))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Transcript\n\n")

	for i, turn := range conv.Turns {
		for _, msg := range []internal.Message{turn.Request, turn.Response} {
			timestamp := ""
			if msg.Timestamp != "" {
				timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
			}
			_, _ = fmt.Fprintf(w, "**%s:**%s\n\n%s\n\n", msg.Speaker, timestamp, escapeMarkdown(msg.Content))
		}

		if i < len(conv.Turns)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

func botSuffix(p internal.Participant) string {
	if p.IsBot {
		return " (agent)"
	}
	return ""
}

// escapeMarkdown escapes emphasis markers outside fenced code blocks
func escapeMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
