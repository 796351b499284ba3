package config

import (
	"fmt"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/iksnae/agentroom/internal"
)

// Default delimiter tokens for ChatML-style models
const (
	DefaultStartToken     = "<|im_start|>"
	DefaultEndToken       = "<|im_end|>"
	DefaultMemStartToken  = "<|mem_start|>"
	DefaultMemEndToken    = "<|mem_end|>"
	DefaultChatStartToken = "<|chat_start|>"
	DefaultChatEndToken   = "<|chat_end|>"
)

var agentNamePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

// Instructions is an agent's identity and prompt material (instructions.yaml)
type Instructions struct {
	Name           string `yaml:"name"`
	Description    string `yaml:"description"`
	Model          string `yaml:"llm_model"`
	SystemMessage  string `yaml:"system_message"`
	AssistantIntro string `yaml:"assistant_intro"`
	AssistantFocus string `yaml:"assistant_focus"`
	PromptScript   string `yaml:"prompt_script,omitempty"`
	StartToken     string `yaml:"start_token"`
	EndToken       string `yaml:"end_token"`
	MemStartToken  string `yaml:"mem_start_token"`
	MemEndToken    string `yaml:"mem_end_token"`
	ChatStartToken string `yaml:"chat_start_token"`
	ChatEndToken   string `yaml:"chat_end_token"`
}

// Validate checks the fields every agent needs
func (i *Instructions) Validate() error {
	return validation.ValidateStruct(i,
		validation.Field(&i.Name, validation.Required, validation.Length(1, 64), validation.Match(agentNamePattern)),
		validation.Field(&i.Model, validation.Required),
		validation.Field(&i.StartToken, validation.Required),
		validation.Field(&i.EndToken, validation.Required),
	)
}

// Params are the sampling options sent with every completion (params.yaml).
// JSON names match the inference server's option names.
type Params struct {
	Temperature float64 `yaml:"temperature" json:"temperature"`
	NumCtx      int     `yaml:"num_ctx" json:"num_ctx"`
	NumGPU      int     `yaml:"num_gpu" json:"num_gpu"`
	NumThread   int     `yaml:"num_thread" json:"num_thread"`
	TopK        int     `yaml:"top_k" json:"top_k"`
	TopP        float64 `yaml:"top_p" json:"top_p"`
	NumPredict  int     `yaml:"num_predict,omitempty" json:"num_predict,omitempty"`
	Seed        int     `yaml:"seed,omitempty" json:"seed,omitempty"`
	Mirostat    int     `yaml:"mirostat,omitempty" json:"mirostat,omitempty"`
	MirostatEta float64 `yaml:"mirostat_eta,omitempty" json:"mirostat_eta,omitempty"`
	MirostatTau float64 `yaml:"mirostat_tau,omitempty" json:"mirostat_tau,omitempty"`
	RepeatLastN int     `yaml:"repeat_last_n,omitempty" json:"repeat_last_n,omitempty"`
	TfsZ        float64 `yaml:"tfs_z,omitempty" json:"tfs_z,omitempty"`
}

// Validate checks sampling values are in range
func (p *Params) Validate() error {
	return validation.ValidateStruct(p,
		validation.Field(&p.Temperature, validation.Min(0.0), validation.Max(2.0)),
		validation.Field(&p.NumCtx, validation.Required, validation.Min(1)),
		validation.Field(&p.NumGPU, validation.Min(0)),
		validation.Field(&p.NumThread, validation.Min(0)),
		validation.Field(&p.TopK, validation.Min(0)),
		validation.Field(&p.TopP, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&p.NumPredict, validation.Min(-2)),
		validation.Field(&p.Mirostat, validation.In(0, 1, 2)),
	)
}

// DefaultParams returns sampling values that work well for small local models
func DefaultParams() Params {
	return Params{
		Temperature: 0.5,
		NumCtx:      4096,
		NumGPU:      50,
		NumThread:   16,
		TopK:        42,
		TopP:        0.42,
		NumPredict:  512,
		RepeatLastN: 64,
	}
}

// Agent is a loaded agent definition
type Agent struct {
	Instructions Instructions `yaml:"instructions"`
	Params       Params       `yaml:"params"`
}

// DefaultAgent returns a new agent definition with default prompt material
func DefaultAgent(name, model string) *Agent {
	return &Agent{
		Instructions: Instructions{
			Name:           name,
			Description:    "a curious and friendly conversationalist",
			Model:          model,
			SystemMessage:  fmt.Sprintf("You are %s. Stay in character and answer in a few sentences.", name),
			AssistantIntro: fmt.Sprintf("I am %s, happy to talk.", name),
			AssistantFocus: "getting to know the person you are talking to",
			StartToken:     DefaultStartToken,
			EndToken:       DefaultEndToken,
			MemStartToken:  DefaultMemStartToken,
			MemEndToken:    DefaultMemEndToken,
			ChatStartToken: DefaultChatStartToken,
			ChatEndToken:   DefaultChatEndToken,
		},
		Params: DefaultParams(),
	}
}

// Name returns the agent's display name
func (a *Agent) Name() string {
	return a.Instructions.Name
}

// Validate validates instructions and params, reporting an InvalidConfiguration error
func (a *Agent) Validate() error {
	if err := a.Instructions.Validate(); err != nil {
		return &internal.ConfigError{Field: "agent " + a.Name() + " instructions", Err: err}
	}
	if err := a.Params.Validate(); err != nil {
		return &internal.ConfigError{Field: "agent " + a.Name() + " params", Err: err}
	}
	return nil
}

// PromptScript returns the agent's prompt template. The memory line is kept
// on its own so a null context removes it whole.
func (a *Agent) PromptScript() string {
	in := a.Instructions
	if strings.TrimSpace(in.PromptScript) != "" {
		return in.PromptScript
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%sSystem: \n%s%s\n", in.StartToken, in.SystemMessage, in.EndToken)
	fmt.Fprintf(&b, "%sAssistant: \n%s%s\n", in.StartToken, in.AssistantIntro, in.EndToken)
	fmt.Fprintf(&b, "%sUser: \nYour current focus should be: %s%s\n", in.StartToken, in.AssistantFocus, in.EndToken)
	fmt.Fprintf(&b, "%sContext from memory: $context%s\n", in.MemStartToken, in.MemEndToken)
	b.WriteString("Chat History: \n$history\n")
	fmt.Fprintf(&b, "%s$username: \n$user_input%s\n", in.StartToken, in.EndToken)
	fmt.Fprintf(&b, "%s%s: \n", in.StartToken, in.Name)
	return b.String()
}

// Opener is the host's scripted first line in a two-agent room
func (a *Agent) Opener() string {
	return fmt.Sprintf("Hello, I'm %s, welcome to my room! People describe me as: %s. "+
		"Please first tell me a little bit about yourself, and then give me 2 topics that you may be interested in speaking with me about. "+
		"As your host, I will choose our first subject from your list.",
		a.Name(), a.Instructions.Description)
}
