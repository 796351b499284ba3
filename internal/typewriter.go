package internal

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/x/ansi"
	"golang.org/x/term"
)

const defaultTerminalWidth = 80

// Typewriter writes text in timed chunks. Writing stops between chunks when
// the context is cancelled, leaving the cursor on a fresh line.
type Typewriter struct {
	Delay     time.Duration // pause between chunks; zero writes everything at once
	ChunkSize int           // runes per chunk
	Width     int           // word-wrap width; zero disables wrapping
}

// Write emits text to w
func (tw Typewriter) Write(ctx context.Context, w io.Writer, text string) error {
	if tw.Width > 0 {
		text = ansi.Wordwrap(text, tw.Width, "")
	}
	if tw.Delay <= 0 {
		_, err := io.WriteString(w, text)
		return err
	}

	chunks := chunkRunes(text, tw.ChunkSize)
	ticker := time.NewTicker(tw.Delay)
	defer ticker.Stop()

	for i, chunk := range chunks {
		if _, err := io.WriteString(w, chunk); err != nil {
			return err
		}
		if i == len(chunks)-1 {
			break
		}
		select {
		case <-ctx.Done():
			_, _ = io.WriteString(w, "\n")
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func chunkRunes(text string, size int) []string {
	if size <= 0 {
		size = 1
	}
	runes := []rune(text)
	chunks := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
	}
	return chunks
}

// TerminalWidth returns the width of f, or 80 when f is not a terminal
func TerminalWidth(f *os.File) int {
	if !isTerminal(f) {
		return defaultTerminalWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultTerminalWidth
	}
	return width
}
