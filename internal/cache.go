package internal

import "fmt"

// DefaultCacheCapacity is the number of turns an agent keeps for prompt history
const DefaultCacheCapacity = 20

// MessageCache is a fixed-capacity buffer of the most recent turns.
// The oldest turn is dropped when a new one arrives at capacity.
// It is owned by a single conversation loop and is not safe for concurrent use.
type MessageCache struct {
	turns []Turn
	start int
	size  int
}

// NewMessageCache creates a cache holding at most capacity turns
func NewMessageCache(capacity int) (*MessageCache, error) {
	if capacity <= 0 {
		return nil, &ConfigError{
			Field: "cache_capacity",
			Err:   fmt.Errorf("must be at least 1, got %d", capacity),
		}
	}
	return &MessageCache{turns: make([]Turn, capacity)}, nil
}

// Add appends a turn, evicting the oldest one on overflow
func (c *MessageCache) Add(turn Turn) {
	if c.size < len(c.turns) {
		c.turns[(c.start+c.size)%len(c.turns)] = turn
		c.size++
		return
	}
	c.turns[c.start] = turn
	c.start = (c.start + 1) % len(c.turns)
}

// Recent returns up to n of the newest turns in arrival order
func (c *MessageCache) Recent(n int) []Turn {
	if n > c.size {
		n = c.size
	}
	if n <= 0 {
		return []Turn{}
	}
	out := make([]Turn, 0, n)
	for i := c.size - n; i < c.size; i++ {
		out = append(out, c.turns[(c.start+i)%len(c.turns)])
	}
	return out
}

// All returns every cached turn in arrival order
func (c *MessageCache) All() []Turn {
	return c.Recent(c.size)
}

// Len returns the number of cached turns
func (c *MessageCache) Len() int {
	return c.size
}

// Capacity returns the maximum number of cached turns
func (c *MessageCache) Capacity() int {
	return len(c.turns)
}
