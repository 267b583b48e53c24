// Package config provides configuration management for mentat.
//
// Two layers of configuration exist:
//
//   - the application config, stored in TOML format with validation and
//     default values for all fields (this file, loader.go, write.go)
//   - the credential store, a .env-style key=value file holding API keys
//     and the active LLM provider/model (envfile.go)
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Config is the top-level configuration struct for mentat.
// It contains all configuration sections as embedded structs.
type Config struct {
	Assistant AssistantConfig `toml:"assistant"`
	LLM       LLMConfig       `toml:"llm"`
	Env       EnvConfig       `toml:"env"`
	TUI       TUIConfig       `toml:"tui"`
	Logging   LoggingConfig   `toml:"logging"`
}

// AssistantConfig contains the assistant persona settings.
type AssistantConfig struct {
	// Name is the assistant's display name used in all conversational output.
	Name string `toml:"name"`

	// Persona is the personality text injected into the system context of
	// every conversation.
	Persona string `toml:"persona"`
}

// LLMConfig contains LLM backend defaults.
//
// The active provider, model and API key live in the credential store so
// they survive interactive reconfiguration; the values here are only
// fallbacks used when the store has no entry yet.
type LLMConfig struct {
	// Provider is the default provider name ("openai" or "anthropic").
	Provider string `toml:"provider"`

	// Model is the default model identifier.
	Model string `toml:"model"`

	// MaxTokens is the maximum tokens to request per completion (0 for the
	// provider default).
	MaxTokens int `toml:"max_tokens"`
}

// EnvConfig contains credential store settings.
type EnvConfig struct {
	// File is the path to the .env-style credential store.
	File string `toml:"file"`
}

// TUIConfig contains terminal UI settings.
type TUIConfig struct {
	// Enabled controls whether interactive forms and the troubleshooting
	// TUI are used (when false, falls back to plain line-based prompts).
	Enabled bool `toml:"enabled"`
}

// LoggingConfig contains debug logging settings.
type LoggingConfig struct {
	// Debug enables debug-level logging.
	Debug bool `toml:"debug"`

	// File is the log file path (empty logs to stderr).
	File string `toml:"file"`
}

// DefaultPersona is the assistant personality used when none is configured.
const DefaultPersona = `You are Thufir, a thoughtful and knowledgeable assistant who helps users with technical tasks.
You have a calm, methodical approach and always explain what you're doing.
You present options clearly and let users make informed choices.`

// DefaultConfig returns a Config with all default values set.
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Assistant: AssistantConfig{
			Name:    "Thufir",
			Persona: DefaultPersona,
		},
		LLM: LLMConfig{
			Provider:  "",
			Model:     "",
			MaxTokens: 0,
		},
		Env: EnvConfig{
			File: filepath.Join(homeDir, ".config", "mentat", "mentat.env"),
		},
		TUI: TUIConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Debug: false,
			File:  "",
		},
	}
}

// Validate checks the configuration for valid values.
// Returns a nil error if the config is valid, or an error describing the problem.
func (c *Config) Validate() error {
	if c.Assistant.Name == "" {
		return fmt.Errorf("assistant.name cannot be empty")
	}

	if c.LLM.Provider != "" {
		validProviders := map[string]bool{
			"openai":    true,
			"anthropic": true,
		}
		if !validProviders[c.LLM.Provider] {
			return fmt.Errorf("llm.provider must be one of: openai, anthropic; got %q", c.LLM.Provider)
		}
	}
	if c.LLM.MaxTokens < 0 {
		return fmt.Errorf("llm.max_tokens must be >= 0; got %d", c.LLM.MaxTokens)
	}

	if c.Env.File == "" {
		return fmt.Errorf("env.file cannot be empty")
	}
	if strings.Contains(c.Env.File, "..") {
		return fmt.Errorf("env.file cannot contain '..': %q", c.Env.File)
	}

	return nil
}
