package internal

import (
	"time"
)

// TestTime is a fixed instant used by fixtures
var TestTime = time.Date(2024, 5, 1, 14, 3, 0, 0, time.UTC)

// CreateTestTurn creates a turn between a user and an agent
func CreateTestTurn(request, response string) Turn {
	return NewTurn(
		NewMessage(RoleUser, "alice", request, TestTime),
		NewMessage(RoleAssistant, "ada", response, TestTime),
	)
}

// CreateTestConversation creates a conversation with the given number of turns
func CreateTestConversation(turns int) *Conversation {
	conv := NewConversation(
		Participant{Name: "ada", IsBot: true},
		Participant{Name: "alice", IsBot: false},
		TestTime,
	)
	for i := 0; i < turns; i++ {
		conv.Append(CreateTestTurn("Hello, how are you?", "I'm doing well, thank you!"), TestTime.Add(time.Duration(i+1)*time.Minute))
	}
	return conv
}
