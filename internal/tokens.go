package internal

import (
	"strings"

	"github.com/pkoukk/tiktoken-go"
)

// DefaultEncoding is the BPE used to estimate prompt sizes
const DefaultEncoding = "cl100k_base"

// TokenCounter estimates how many model tokens a text uses
type TokenCounter interface {
	Count(text string) int
}

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// WordCounter approximates tokens as four per three words
type WordCounter struct{}

func (WordCounter) Count(text string) int {
	n := len(strings.Fields(text))
	return (n*4 + 2) / 3
}

// NewTokenCounter loads the named encoding, falling back to WordCounter
// when the encoding cannot be loaded (e.g. offline without a BPE cache).
func NewTokenCounter(encoding string) TokenCounter {
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		LogDebug("Token encoding %s unavailable, estimating by words: %v", encoding, err)
		return WordCounter{}
	}
	return tiktokenCounter{enc: enc}
}
