// Package config provides configuration loading and validation for Solace.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/solacebot/solace/internal/crisis"
)

// Duration decodes YAML strings like "15s" into a time.Duration.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("duration must be a string: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds all Solace configuration.
type Config struct {
	Discord    DiscordConfig    `yaml:"discord"`
	Completion CompletionConfig `yaml:"completion"`
	Session    SessionConfig    `yaml:"session"`
	Dispatch   DispatchConfig   `yaml:"dispatch"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// DiscordConfig configures the Discord collaborator.
type DiscordConfig struct {
	// Token is the bot token. Left empty in files; supplied via the
	// DISCORD_TOKEN environment variable.
	Token string `yaml:"token"`
	// GuildID scopes slash-command registration; empty registers
	// commands globally.
	GuildID string `yaml:"guild_id"`
}

// CompletionConfig configures the completion service endpoint.
type CompletionConfig struct {
	// APIKey is supplied via the GROQ_API_KEY environment variable.
	APIKey      string        `yaml:"api_key"`
	BaseURL     string        `yaml:"base_url"`
	Model       string        `yaml:"model"`
	Temperature float64       `yaml:"temperature"`
	TopP        float64       `yaml:"top_p"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     Duration      `yaml:"timeout"`
}

// SessionConfig configures the session engine.
type SessionConfig struct {
	PersonaName       string   `yaml:"persona_name"`
	PersonaPromptPath string   `yaml:"persona_prompt_path"`
	CrisisPhrases     []string `yaml:"crisis_phrases"`
}

// DispatchConfig configures the worker pool.
type DispatchConfig struct {
	Workers int `yaml:"workers"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	// Addr is the listen address for /metrics; empty disables the
	// endpoint.
	Addr string `yaml:"addr"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the stock configuration.
func Default() *Config {
	return &Config{
		Completion: CompletionConfig{
			BaseURL:     "https://api.groq.com/openai/v1",
			Model:       "llama-3.3-70b-versatile",
			Temperature: 0.85,
			TopP:        0.9,
			MaxTokens:   300,
			Timeout:     Duration(15 * time.Second),
		},
		Session: SessionConfig{
			PersonaName:   "Zoya",
			CrisisPhrases: crisis.DefaultPhrases(),
		},
		Dispatch: DispatchConfig{
			Workers: 4,
		},
		Metrics: MetricsConfig{
			Addr: ":9090",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from an optional YAML file, applies
// environment overrides, and validates the result. An empty path loads
// defaults plus environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 - path comes from the operator's flag
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays credentials from the environment. Environment wins
// over file values so secrets never need to live on disk.
func (c *Config) applyEnv() {
	if token := os.Getenv("DISCORD_TOKEN"); token != "" {
		c.Discord.Token = token
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.Completion.APIKey = key
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Discord.Token == "" {
		return fmt.Errorf("discord token is not set; set DISCORD_TOKEN")
	}
	if c.Completion.APIKey == "" {
		return fmt.Errorf("completion API key is not set; set GROQ_API_KEY")
	}
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("completion base URL cannot be empty")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("completion model cannot be empty")
	}
	if c.Completion.Timeout <= 0 {
		return fmt.Errorf("completion timeout must be positive")
	}
	if c.Dispatch.Workers <= 0 {
		return fmt.Errorf("dispatch workers must be positive, got %d", c.Dispatch.Workers)
	}
	if len(c.Session.CrisisPhrases) == 0 {
		return fmt.Errorf("crisis phrase list cannot be empty")
	}
	return nil
}

// LoadPersonaPrompt loads the persona prompt from the configured path,
// falling back to the supplied embedded default.
func (c *Config) LoadPersonaPrompt(embedded string) (string, error) {
	if c.Session.PersonaPromptPath == "" {
		if err := ValidatePersonaPrompt(embedded); err != nil {
			return "", err
		}
		return embedded, nil
	}

	content, err := os.ReadFile(c.Session.PersonaPromptPath) // #nosec G304 - path comes from config
	if err != nil {
		return "", fmt.Errorf("failed to read persona prompt: %w", err)
	}
	prompt := string(content)
	if err := ValidatePersonaPrompt(prompt); err != nil {
		return "", err
	}
	return prompt, nil
}

// ValidatePersonaPrompt ensures the persona prompt is non-empty after
// trimming whitespace.
func ValidatePersonaPrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("persona prompt is empty")
	}
	return nil
}
