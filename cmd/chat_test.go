package cmd

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/iksnae/agentroom/internal"
	"github.com/iksnae/agentroom/internal/convlog"
	"github.com/iksnae/agentroom/testutil"
)

// loggedConversations lists the conversations saved under home
func loggedConversations(t *testing.T, home string) []convlog.Summary {
	t.Helper()
	db, err := internal.OpenDatabase(filepath.Join(home, "agentroom.db"))
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	defer db.Close()
	log, err := convlog.New(db)
	if err != nil {
		t.Fatalf("convlog.New() error = %v", err)
	}
	summaries, err := log.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	return summaries
}

func TestChatCommand(t *testing.T) {
	home := t.TempDir()
	testutil.CreateAgentFixture(t, home, "ada", "llama3")
	port := fakeOllama(t, func(n int, prompt string) string {
		return "  Nice to meet you, alice.  "
	})

	out, err := executeWithInput(t, "hello there\n!focus\nexit\n",
		"--home", home, "chat", "ada", "--user", "alice", "--port", strconv.Itoa(port))
	if err != nil {
		t.Fatalf("chat error = %v", err)
	}
	for _, want := range []string{"Chatting with ada (llama3)", "ada: Nice to meet you, alice.\n", "Focus: testing"} {
		if !strings.Contains(out, want) {
			t.Errorf("chat output missing %q:\n%s", want, out)
		}
	}

	summaries := loggedConversations(t, home)
	if len(summaries) != 1 {
		t.Fatalf("conversations = %d, want 1", len(summaries))
	}
	if s := summaries[0]; s.Title() != "ada & alice" || s.Turns != 1 || !s.Host.IsBot || s.Guest.IsBot {
		t.Errorf("conversation = %+v, want one turn between ada (agent) and alice", s)
	}

	out, err = execute(t, "--home", home, "memory", "list")
	if err != nil {
		t.Fatalf("memory list error = %v", err)
	}
	if !strings.Contains(out, "ada-alice (1)") {
		t.Errorf("memory list output = %q, want the chat turn stored under ada-alice", out)
	}
}

func TestChatCommand_MissingAgent(t *testing.T) {
	port := fakeOllama(t, uniqueReply)
	_, err := executeWithInput(t, "exit\n", "--home", t.TempDir(), "chat", "nobody", "--port", strconv.Itoa(port))
	if err == nil || !strings.Contains(err.Error(), "nobody") {
		t.Errorf("chat error = %v, want a missing agent error", err)
	}
}

func TestChatCommand_NoServerOnPort(t *testing.T) {
	home := t.TempDir()
	testutil.CreateAgentFixture(t, home, "ada", "llama3")

	_, err := executeWithInput(t, "exit\n", "--home", home, "chat", "ada", "--port", "1")
	if err == nil || !strings.Contains(err.Error(), "no Ollama server on port 1") {
		t.Errorf("chat error = %v, want an unreachable server error", err)
	}
}

func TestDuoCommand(t *testing.T) {
	home := t.TempDir()
	testutil.CreateAgentFixture(t, home, "ada", "llama3")
	testutil.CreateAgentFixture(t, home, "bob", "mistral")
	port := fakeOllama(t, uniqueReply)

	out, err := execute(t, "--home", home, "duo", "ada", "bob", "--max-rounds", "2", "--port", strconv.Itoa(port))
	if err != nil {
		t.Fatalf("duo error = %v", err)
	}
	for _, want := range []string{"ada & bob", "ada:", "bob:", "r1w0"} {
		if !strings.Contains(out, want) {
			t.Errorf("duo output missing %q:\n%s", want, out)
		}
	}

	summaries := loggedConversations(t, home)
	if len(summaries) != 1 || summaries[0].Turns != 2 {
		t.Fatalf("conversations = %+v, want one conversation with 2 turns", summaries)
	}
	if !summaries[0].Host.IsBot || !summaries[0].Guest.IsBot {
		t.Errorf("both participants should be agents: %+v", summaries[0])
	}

	out, err = execute(t, "--home", home, "memory", "list")
	if err != nil {
		t.Fatalf("memory list error = %v", err)
	}
	for _, want := range []string{"ada-bob (2)", "bob-ada (2)"} {
		if !strings.Contains(out, want) {
			t.Errorf("memory list output missing %q:\n%s", want, out)
		}
	}
}

func TestDuoCommand_SameAgent(t *testing.T) {
	home := t.TempDir()
	testutil.CreateAgentFixture(t, home, "ada", "llama3")

	_, err := execute(t, "--home", home, "duo", "ada", "ada")
	if err == nil || !strings.Contains(err.Error(), "different agents") {
		t.Errorf("duo error = %v, want a same-agent error", err)
	}
}
