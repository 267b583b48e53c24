package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentathq/mentat/internal/config"
)

func TestResolveModel_FullName(t *testing.T) {
	model, err := resolveModel("openai", "gpt-4")
	require.NoError(t, err)
	assert.Equal(t, "gpt-4", model)
}

func TestResolveModel_Alias(t *testing.T) {
	model, err := resolveModel("anthropic", "opus")
	require.NoError(t, err)
	assert.Equal(t, "claude-3-opus-20240229", model)
}

func TestResolveModel_Ambiguous(t *testing.T) {
	_, err := resolveModel("openai", "gpt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ambiguous")
}

func TestResolveModel_NoMatch(t *testing.T) {
	_, err := resolveModel("openai", "llama")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no model matching")
}

func TestPersistLLMDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	cfg := config.DefaultConfig()

	require.NoError(t, persistLLMDefaults(cfg, path, "anthropic", "claude-3-opus-20240229"))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "anthropic", loaded.LLM.Provider)
	assert.Equal(t, "claude-3-opus-20240229", loaded.LLM.Model)

	// The rest of the config round-trips untouched.
	assert.Equal(t, cfg.Assistant.Name, loaded.Assistant.Name)
	assert.Equal(t, cfg.Env.File, loaded.Env.File)
}
