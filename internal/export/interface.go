package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/agentroom/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	Export(conv *internal.Conversation, w io.Writer) error
	Extension() string
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch strings.ToLower(format) {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, &internal.ExportError{Format: format, Err: fmt.Errorf("unsupported format (supported: jsonl, md, yaml, json)")}
	}
}

// FileName is the default export file name for a conversation
func FileName(conv *internal.Conversation, e Exporter) string {
	title := strings.ToLower(conv.Host.Name + "-" + conv.Guest.Name)
	title = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, title)
	return fmt.Sprintf("%s-%s.%s", title, conv.ID.String()[:8], e.Extension())
}
