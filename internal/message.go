package internal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TimestampLayout is the layout of message timestamps ("2024-05-01 @ 14:03")
const TimestampLayout = "2006-01-02 @ 15:04"

// Role identifies which half of a turn a message is
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single utterance. It is never modified after creation.
type Message struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	Role      Role      `json:"role" yaml:"role"`
	Speaker   string    `json:"speaker" yaml:"speaker"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp string    `json:"timestamp" yaml:"timestamp"`
}

// NewMessage creates a message stamped with the given time
func NewMessage(role Role, speaker, content string, at time.Time) Message {
	return Message{
		ID:        uuid.New(),
		Role:      role,
		Speaker:   speaker,
		Content:   content,
		Timestamp: at.Format(TimestampLayout),
	}
}

// PromptString renders the message for a chat history block
func (m Message) PromptString(start, end string) string {
	return fmt.Sprintf("%s%s (%s):\n%s%s\n", start, m.Speaker, m.Timestamp, m.Content, end)
}

// MemoryString renders the message for storage in a memory collection
func (m Message) MemoryString() string {
	return fmt.Sprintf("%s @ %s: %s", m.Speaker, m.Timestamp, m.Content)
}

// Turn is one request/response exchange
type Turn struct {
	ID       uuid.UUID `json:"id" yaml:"id"`
	Request  Message   `json:"request" yaml:"request"`
	Response Message   `json:"response" yaml:"response"`
}

// NewTurn pairs a request with its response
func NewTurn(request, response Message) Turn {
	return Turn{
		ID:       uuid.New(),
		Request:  request,
		Response: response,
	}
}

// MemoryDocument is the retrieval document stored for a turn
func (t Turn) MemoryDocument() string {
	return t.Request.MemoryString() + "\n" + t.Response.MemoryString()
}

// Participant is one side of a conversation
type Participant struct {
	Name  string `json:"name" yaml:"name"`
	IsBot bool   `json:"is_bot" yaml:"is_bot"`
}

// Conversation is an append-only log of turns between a host and a guest
type Conversation struct {
	ID         uuid.UUID   `json:"id" yaml:"id"`
	CreatedAt  time.Time   `json:"created_at" yaml:"created_at"`
	LastActive time.Time   `json:"last_active" yaml:"last_active"`
	Host       Participant `json:"host" yaml:"host"`
	Guest      Participant `json:"guest" yaml:"guest"`
	Turns      []Turn      `json:"turns" yaml:"turns"`
}

// NewConversation starts an empty conversation
func NewConversation(host, guest Participant, at time.Time) *Conversation {
	return &Conversation{
		ID:         uuid.New(),
		CreatedAt:  at,
		LastActive: at,
		Host:       host,
		Guest:      guest,
		Turns:      []Turn{},
	}
}

// Append records a turn and bumps LastActive
func (c *Conversation) Append(turn Turn, at time.Time) {
	c.Turns = append(c.Turns, turn)
	c.LastActive = at
}

// Title is a short human label for the conversation
func (c *Conversation) Title() string {
	return fmt.Sprintf("%s & %s", c.Host.Name, c.Guest.Name)
}
