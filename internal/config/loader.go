// Package config provides configuration management for mentat.
//
// This file contains config loading functionality including:
// - XDG config path detection
// - TOML file parsing
// - Environment variable overrides
// - Validation
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DetectConfigPath searches for a config file using XDG standard paths.
// Returns the first config file found, or empty string if none exists.
//
// Search order:
// 1. ~/.config/mentat/config.toml
//
// Returns empty string if no config file is found (caller should use defaults).
func DetectConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	configPath := filepath.Join(homeDir, ".config", "mentat", "config.toml")
	if _, err := os.Stat(configPath); err == nil {
		return configPath
	}

	return ""
}

// Load loads a config from the specified path.
// If the file doesn't exist, returns an error.
// After loading, applies environment variable overrides and validates.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Start with defaults
	cfg := DefaultConfig()

	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	expandPath(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults attempts to load a config from XDG standard paths.
// If no config file is found, returns a config with all default values.
// If a config file is found but fails to load/validate, returns an error.
func LoadWithDefaults() (*Config, error) {
	configPath := DetectConfigPath()
	if configPath == "" {
		cfg := DefaultConfig()
		applyEnvOverrides(cfg)
		expandPath(cfg)
		return cfg, nil
	}

	return Load(configPath)
}

// applyEnvOverrides applies environment variable overrides to the config.
// Environment variables follow the pattern: MENTAT_<SECTION>_<FIELD>
//
// Examples:
// - MENTAT_ASSISTANT_NAME overrides [assistant].name
// - MENTAT_LLM_PROVIDER overrides [llm].provider
// - MENTAT_ENV_FILE overrides [env].file
//
// Boolean fields: use "true"/"false" strings.
func applyEnvOverrides(c *Config) {
	applyString := func(key string, target *string) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			*target = val
		}
	}

	applyBool := func(key string, target *bool) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			switch strings.ToLower(val) {
			case "true", "1", "yes", "on":
				*target = true
			case "false", "0", "no", "off":
				*target = false
			}
		}
	}

	applyInt := func(key string, target *int) {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			var i int
			if _, err := fmt.Sscanf(val, "%d", &i); err == nil {
				*target = i
			}
		}
	}

	// Assistant section
	applyString("MENTAT_ASSISTANT_NAME", &c.Assistant.Name)
	applyString("MENTAT_ASSISTANT_PERSONA", &c.Assistant.Persona)

	// LLM section
	applyString("MENTAT_LLM_PROVIDER", &c.LLM.Provider)
	applyString("MENTAT_LLM_MODEL", &c.LLM.Model)
	applyInt("MENTAT_LLM_MAX_TOKENS", &c.LLM.MaxTokens)

	// Env section
	applyString("MENTAT_ENV_FILE", &c.Env.File)

	// TUI section
	applyBool("MENTAT_TUI_ENABLED", &c.TUI.Enabled)

	// Logging section
	applyBool("MENTAT_LOGGING_DEBUG", &c.Logging.Debug)
	applyString("MENTAT_LOGGING_FILE", &c.Logging.File)
}

// expandPath expands ~ to the home directory in file paths.
func expandPath(c *Config) {
	expand := func(p string) string {
		if strings.HasPrefix(p, "~/") || p == "~" {
			homeDir, err := os.UserHomeDir()
			if err == nil {
				return filepath.Join(homeDir, strings.TrimPrefix(p, "~/"))
			}
		}
		return p
	}

	c.Env.File = expand(c.Env.File)
	c.Logging.File = expand(c.Logging.File)
}
