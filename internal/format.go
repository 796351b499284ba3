package internal

import (
	"fmt"
	"regexp"
	"strings"
)

// NoResults is the memory context used when retrieval finds nothing
const NoResults = "No results found."

var (
	newlineRuns = regexp.MustCompile(`\n{2,}`)

	// "speaker @ timestamp: content"; the timestamp itself may contain " @ "
	memoryHeader = regexp.MustCompile(`^([^\n@]+?) @ (.+?): `)

	// the response header of a turn document carries a TimestampLayout stamp
	responseHeader = regexp.MustCompile(`^([^\n@]+?) @ (\d{4}-\d{2}-\d{2} @ \d{2}:\d{2}): `)
)

// FormatHistory renders turns as a chat history block, request before response.
// Runs of blank lines are collapsed so every entry starts on its own line.
func FormatHistory(turns []Turn, start, end string) string {
	var b strings.Builder
	for _, t := range turns {
		b.WriteString(t.Request.PromptString(start, end))
		b.WriteString(t.Response.PromptString(start, end))
	}
	return newlineRuns.ReplaceAllString(b.String(), "\n")
}

// FormatMemoryHits renders retrieved memory documents for the prompt.
// Every entry of every hit is kept, in ranking order.
func FormatMemoryHits(docs []string) string {
	var entries []string
	for _, doc := range docs {
		doc = strings.TrimSpace(doc)
		if doc == "" {
			continue
		}
		entries = append(entries, memoryEntries(doc)...)
	}
	if len(entries) == 0 {
		return NoResults
	}
	return strings.Join(entries, "\n")
}

// memoryEntries splits one stored document into rendered entries. A turn
// document holds the request and the response memory strings, so after the
// first header only one more is recognized, and only with a real timestamp.
// Other lines belong to the entry above them.
func memoryEntries(doc string) []string {
	lines := strings.Split(doc, "\n")
	m := memoryHeader.FindStringSubmatch(lines[0])
	if m == nil {
		return []string{looseEntry(doc)}
	}

	var entries []string
	speaker, timestamp := strings.TrimSpace(m[1]), strings.TrimSpace(m[2])
	content := []string{strings.TrimSpace(lines[0][len(m[0]):])}
	for _, line := range lines[1:] {
		if len(entries) == 0 {
			if h := responseHeader.FindStringSubmatch(line); h != nil {
				entries = append(entries, renderEntry(speaker, timestamp, strings.Join(content, "\n")))
				speaker, timestamp = strings.TrimSpace(h[1]), h[2]
				content = []string{strings.TrimSpace(line[len(h[0]):])}
				continue
			}
		}
		content = append(content, line)
	}
	return append(entries, renderEntry(speaker, timestamp, strings.Join(content, "\n")))
}

// looseEntry handles documents that were not written as memory strings,
// such as ingested corpus chunks.
func looseEntry(doc string) string {
	parts := strings.Split(doc, " @ ")
	if len(parts) < 3 {
		return doc
	}
	return renderEntry(strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), strings.TrimSpace(strings.Join(parts[2:], " @ ")))
}

func renderEntry(speaker, timestamp, content string) string {
	return fmt.Sprintf("%s (%s):\n%s", speaker, timestamp, content)
}
