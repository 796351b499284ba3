package testutil

import (
	"fmt"
	"path/filepath"
	"testing"
)

// AgentInstructionsYAML returns a minimal instructions.yaml body for an agent
func AgentInstructionsYAML(name, model string) []byte {
	return []byte(fmt.Sprintf(`name: %s
description: a helpful test agent
llm_model: %s
system_message: You are %s.
assistant_intro: I am %s.
assistant_focus: testing
start_token: "<|im_start|>"
end_token: "<|im_end|>"
mem_start_token: "<|mem_start|>"
mem_end_token: "<|mem_end|>"
chat_start_token: "<|chat_start|>"
chat_end_token: "<|chat_end|>"
`, name, model, name, name))
}

// AgentParamsYAML returns a params.yaml body with sensible sampling values
func AgentParamsYAML() []byte {
	return []byte(`temperature: 0.5
num_ctx: 4096
num_gpu: 50
num_thread: 16
top_k: 42
top_p: 0.42
num_predict: 512
repeat_last_n: 64
`)
}

// CreateAgentFixture writes an agent directory under home and returns its path
func CreateAgentFixture(t *testing.T, home, name, model string) string {
	t.Helper()
	dir := filepath.Join(home, "agents", name)
	WriteFile(t, dir, "instructions.yaml", AgentInstructionsYAML(name, model))
	WriteFile(t, dir, "params.yaml", AgentParamsYAML())
	return dir
}
