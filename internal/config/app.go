package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/iksnae/agentroom/internal"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	// HomeEnv overrides the default home directory
	HomeEnv = "AGENTROOM_HOME"

	configFile   = "config.yaml"
	databaseFile = "agentroom.db"
)

// Ollama controls the owned inference server
type Ollama struct {
	Binary         string        `yaml:"binary" env:"AGENTROOM_OLLAMA_BINARY" env-default:"ollama"`
	PortStart      int           `yaml:"port_start" env:"AGENTROOM_PORT_START" env-default:"4200"`
	PortEnd        int           `yaml:"port_end" env:"AGENTROOM_PORT_END" env-default:"4300"`
	StopGrace      time.Duration `yaml:"stop_grace" env:"AGENTROOM_STOP_GRACE" env-default:"5s"`
	StartupTimeout time.Duration `yaml:"startup_timeout" env:"AGENTROOM_STARTUP_TIMEOUT" env-default:"30s"`
}

// Completion selects and tunes the completion backend
type Completion struct {
	Backend       string        `yaml:"backend" env:"AGENTROOM_COMPLETION_BACKEND" env-default:"ollama"`
	Timeout       time.Duration `yaml:"timeout" env:"AGENTROOM_COMPLETION_TIMEOUT" env-default:"120s"`
	OpenAIBaseURL string        `yaml:"openai_base_url" env:"OPENAI_BASE_URL"`
	OpenAIKey     string        `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	TokenBudget   bool          `yaml:"token_budget" env:"AGENTROOM_TOKEN_BUDGET" env-default:"false"`
	Encoding      string        `yaml:"encoding" env:"AGENTROOM_TOKEN_ENCODING" env-default:"cl100k_base"`
}

// Memory selects the long-term memory backend
type Memory struct {
	Backend       string `yaml:"backend" env:"AGENTROOM_MEMORY_BACKEND" env-default:"sqlite"`
	Results       int    `yaml:"results" env:"AGENTROOM_MEMORY_RESULTS" env-default:"5"`
	RedisAddr     string `yaml:"redis_addr" env:"AGENTROOM_REDIS_ADDR" env-default:"localhost:6379"`
	RedisPassword string `yaml:"redis_password" env:"AGENTROOM_REDIS_PASSWORD"`
	RedisDB       int    `yaml:"redis_db" env:"AGENTROOM_REDIS_DB" env-default:"0"`
	RedisPrefix   string `yaml:"redis_prefix" env:"AGENTROOM_REDIS_PREFIX" env-default:"agentroom"`
}

// Chat tunes single-agent sessions and terminal output
type Chat struct {
	CacheCapacity   int           `yaml:"cache_capacity" env:"AGENTROOM_CACHE_CAPACITY" env-default:"20"`
	TypewriterDelay time.Duration `yaml:"typewriter_delay" env:"AGENTROOM_TYPEWRITER_DELAY" env-default:"20ms"`
	ChunkSize       int           `yaml:"chunk_size" env:"AGENTROOM_CHUNK_SIZE" env-default:"2"`
}

// Duo tunes the two-agent room
type Duo struct {
	MaxRounds   int     `yaml:"max_rounds" env:"AGENTROOM_DUO_MAX_ROUNDS" env-default:"0"`
	NGram       int     `yaml:"ngram" env:"AGENTROOM_DUO_NGRAM" env-default:"3"`
	Window      int     `yaml:"window" env:"AGENTROOM_DUO_WINDOW" env-default:"4"`
	Threshold   float64 `yaml:"threshold" env:"AGENTROOM_DUO_THRESHOLD" env-default:"0.6"`
	MaxFailures int     `yaml:"max_failures" env:"AGENTROOM_DUO_MAX_FAILURES" env-default:"3"`
}

// Config is the application configuration (config.yaml + environment)
type Config struct {
	Home       string     `yaml:"-"`
	Ollama     Ollama     `yaml:"ollama"`
	Completion Completion `yaml:"completion"`
	Memory     Memory     `yaml:"memory"`
	Chat       Chat       `yaml:"chat"`
	Duo        Duo        `yaml:"duo"`
}

// ResolveHome picks the home directory: explicit flag, then AGENTROOM_HOME, then ~/.agentroom
func ResolveHome(flag string) (string, error) {
	if flag != "" {
		return flag, nil
	}
	if env := os.Getenv(HomeEnv); env != "" {
		return env, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".agentroom"), nil
}

// LoadDotEnv loads a .env file from the working directory when present
func LoadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		internal.LogWarn("Failed to load .env: %v", err)
	}
}

// Load reads <home>/config.yaml when it exists, then applies environment overrides
func Load(home string) (*Config, error) {
	var cfg Config
	path := filepath.Join(home, configFile)
	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, &internal.ConfigError{Field: path, Err: err}
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &internal.ConfigError{Field: "environment", Err: err}
	}
	cfg.Home = home

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks cross-field constraints
func (c *Config) Validate() error {
	err := validation.Errors{
		"ollama": validation.ValidateStruct(&c.Ollama,
			validation.Field(&c.Ollama.Binary, validation.Required),
			validation.Field(&c.Ollama.PortStart, validation.Required, validation.Min(1), validation.Max(65535)),
			validation.Field(&c.Ollama.PortEnd, validation.Required, validation.Min(c.Ollama.PortStart), validation.Max(65535)),
		),
		"completion": validation.ValidateStruct(&c.Completion,
			validation.Field(&c.Completion.Backend, validation.In("ollama", "openai")),
			validation.Field(&c.Completion.Timeout, validation.Min(time.Duration(0))),
		),
		"memory": validation.ValidateStruct(&c.Memory,
			validation.Field(&c.Memory.Backend, validation.In("sqlite", "redis")),
			validation.Field(&c.Memory.Results, validation.Required, validation.Min(1)),
		),
		"chat": validation.ValidateStruct(&c.Chat,
			validation.Field(&c.Chat.CacheCapacity, validation.Required, validation.Min(1)),
			validation.Field(&c.Chat.ChunkSize, validation.Min(0)),
		),
		"duo": validation.ValidateStruct(&c.Duo,
			validation.Field(&c.Duo.MaxRounds, validation.Min(0)),
			validation.Field(&c.Duo.NGram, validation.Required, validation.Min(1)),
			validation.Field(&c.Duo.Window, validation.Required, validation.Min(2)),
			validation.Field(&c.Duo.Threshold, validation.Min(0.0), validation.Max(1.0)),
		),
	}.Filter()
	if err != nil {
		return &internal.ConfigError{Field: "config", Err: err}
	}
	return nil
}

// DatabasePath is the sqlite file holding conversations and local memory
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Home, databaseFile)
}
