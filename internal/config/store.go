package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/iksnae/agentroom/internal"
	"gopkg.in/yaml.v3"
)

const (
	instructionsFile = "instructions.yaml"
	paramsFile       = "params.yaml"
	agentsListFile   = "agents_list.yaml"
)

// ErrAgentExists is returned when creating an agent whose directory already exists
var ErrAgentExists = errors.New("agent already exists")

// AgentEntry is one row of the agents list
type AgentEntry struct {
	Name        string `yaml:"name"`
	Model       string `yaml:"llm_model"`
	Description string `yaml:"description"`
}

type agentsList struct {
	Agents []AgentEntry `yaml:"agents"`
}

// Store reads and writes agent definitions under <home>/agents
type Store struct {
	dir string
}

// NewStore creates a store rooted at the agentroom home directory
func NewStore(home string) *Store {
	return &Store{dir: filepath.Join(home, "agents")}
}

// Dir returns the agents directory
func (s *Store) Dir() string {
	return s.dir
}

// AgentDir returns the directory holding an agent's files
func (s *Store) AgentDir(name string) string {
	return filepath.Join(s.dir, strings.ToLower(name))
}

// Load reads and validates an agent. A missing params file falls back to defaults.
func (s *Store) Load(name string) (*Agent, error) {
	dir := s.AgentDir(name)

	agent := &Agent{Params: DefaultParams()}
	if err := readYAML(filepath.Join(dir, instructionsFile), &agent.Instructions); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &internal.ConfigError{Field: "agent " + name, Err: fmt.Errorf("no agent named %q in %s", name, s.dir)}
		}
		return nil, err
	}
	if err := readYAML(filepath.Join(dir, paramsFile), &agent.Params); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	if err := agent.Validate(); err != nil {
		return nil, err
	}
	internal.LogDebug("Loaded agent %s (model %s)", agent.Name(), agent.Instructions.Model)
	return agent, nil
}

// Save writes an agent's instructions and params
func (s *Store) Save(agent *Agent) error {
	if err := agent.Validate(); err != nil {
		return err
	}
	dir := s.AgentDir(agent.Name())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &internal.StorageError{Path: dir, Op: "write", Err: err}
	}
	if err := writeYAML(filepath.Join(dir, instructionsFile), agent.Instructions); err != nil {
		return err
	}
	return writeYAML(filepath.Join(dir, paramsFile), agent.Params)
}

// Create scaffolds a new agent and adds it to the agents list
func (s *Store) Create(agent *Agent) error {
	if err := agent.Validate(); err != nil {
		return err
	}
	dir := s.AgentDir(agent.Name())
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrAgentExists, agent.Name())
	}
	if err := s.Save(agent); err != nil {
		return err
	}

	list, err := s.readList()
	if err != nil {
		return err
	}
	list.Agents = append(list.Agents, AgentEntry{
		Name:        agent.Name(),
		Model:       agent.Instructions.Model,
		Description: agent.Instructions.Description,
	})
	if err := writeYAML(filepath.Join(s.dir, agentsListFile), list); err != nil {
		return err
	}
	internal.LogInfo("Created agent %s in %s", agent.Name(), dir)
	return nil
}

// List returns the agents list, plus any agent directories missing from it
func (s *Store) List() ([]AgentEntry, error) {
	list, err := s.readList()
	if err != nil {
		return nil, err
	}

	listed := make(map[string]bool)
	for _, entry := range list.Agents {
		listed[strings.ToLower(entry.Name)] = true
	}

	dirs, err := os.ReadDir(s.dir)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &internal.StorageError{Path: s.dir, Op: "read", Err: err}
	}
	for _, d := range dirs {
		if !d.IsDir() || listed[d.Name()] {
			continue
		}
		var in Instructions
		if err := readYAML(filepath.Join(s.dir, d.Name(), instructionsFile), &in); err != nil {
			internal.LogDebug("Skipping %s: %v", d.Name(), err)
			continue
		}
		list.Agents = append(list.Agents, AgentEntry{Name: in.Name, Model: in.Model, Description: in.Description})
	}

	sort.Slice(list.Agents, func(i, j int) bool {
		return strings.ToLower(list.Agents[i].Name) < strings.ToLower(list.Agents[j].Name)
	})
	return list.Agents, nil
}

func (s *Store) readList() (*agentsList, error) {
	var list agentsList
	err := readYAML(filepath.Join(s.dir, agentsListFile), &list)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	return &list, nil
}

func readYAML(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return &internal.StorageError{Path: path, Op: "read", Err: err}
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return &internal.StorageError{Path: path, Op: "parse", Err: err}
	}
	return nil
}

func writeYAML(path string, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return &internal.StorageError{Path: path, Op: "write", Err: err}
	}
	return nil
}
