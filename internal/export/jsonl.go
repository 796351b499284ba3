package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/agentroom/internal"
)

// JSONLExporter exports conversations in JSONL format (one message per line)
type JSONLExporter struct{}

type jsonlLine struct {
	TurnID    string        `json:"turn_id"`
	Role      internal.Role `json:"role"`
	Speaker   string        `json:"speaker"`
	Content   string        `json:"content"`
	Timestamp string        `json:"timestamp,omitempty"`
}

// Export writes each turn's request and response as separate lines
func (e *JSONLExporter) Export(conv *internal.Conversation, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, turn := range conv.Turns {
		for _, msg := range []internal.Message{turn.Request, turn.Response} {
			line := jsonlLine{
				TurnID:    turn.ID.String(),
				Role:      msg.Role,
				Speaker:   msg.Speaker,
				Content:   msg.Content,
				Timestamp: msg.Timestamp,
			}
			if err := enc.Encode(line); err != nil {
				return fmt.Errorf("failed to encode message: %w", err)
			}
		}
	}

	return nil
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
