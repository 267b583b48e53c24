// Package llm provides the LLM backend: provider-neutral completion, the
// conversation state machine and interactive provider/model setup support.
package llm

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// Message is one {role, content} turn in the provider-neutral wire shape.
// The backend does not depend on any specific provider's format beyond this.
type Message struct {
	Role    string `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Completer is an LLM completion provider. Implementations accept a model
// identifier and an ordered message list and return a single response
// message or an error.
type Completer interface {
	// Name returns the provider name.
	Name() string

	// Complete performs one completion round-trip.
	Complete(ctx context.Context, model string, messages []Message) (Message, error)
}

// Config contains provider configuration.
type Config struct {
	// Provider is the provider name (openai, anthropic).
	Provider string

	// APIKey is the API key for the provider.
	APIKey string

	// BaseURL overrides the provider's default API endpoint.
	BaseURL string

	// MaxTokens is the maximum tokens to generate (0 for provider default).
	MaxTokens int
}

// Factory creates a completer from configuration.
type Factory func(cfg *Config) (Completer, error)

var providers = make(map[string]Factory)

// RegisterProvider registers a provider factory.
func RegisterProvider(name string, factory Factory) {
	providers[name] = factory
}

// NewCompleter creates a completer from configuration.
func NewCompleter(cfg *Config) (Completer, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil provider config")
	}

	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", cfg.Provider)
	}

	return factory(cfg)
}

// SupportedProviders maps each provider to its selectable models.
var SupportedProviders = map[string][]string{
	"openai":    {"gpt-4", "gpt-3.5-turbo"},
	"anthropic": {"claude-3-opus-20240229", "claude-3-sonnet-20240229"},
}

// ModelAliases maps shorthand names to full model identifiers, per provider.
var ModelAliases = map[string]map[string]string{
	"openai": {
		"gpt4": "gpt-4",
		"gpt3": "gpt-3.5-turbo",
		"4":    "gpt-4",
		"3.5":  "gpt-3.5-turbo",
	},
	"anthropic": {
		"opus":          "claude-3-opus-20240229",
		"sonnet":        "claude-3-sonnet-20240229",
		"claude-opus":   "claude-3-opus-20240229",
		"claude-sonnet": "claude-3-sonnet-20240229",
	},
}

// ProviderNames returns the supported provider names, sorted.
func ProviderNames() []string {
	names := make([]string, 0, len(SupportedProviders))
	for name := range SupportedProviders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ProviderModels returns the available models for a provider.
func ProviderModels(provider string) []string {
	return SupportedProviders[provider]
}

// FindMatchingModels finds models matching the user input for a provider,
// including aliases. The input matches a model when it is a substring of the
// full name or of an alias.
func FindMatchingModels(provider, userInput string) []string {
	userInput = strings.ToLower(strings.TrimSpace(userInput))

	seen := make(map[string]bool)
	var matches []string
	add := func(model string) {
		if !seen[model] {
			seen[model] = true
			matches = append(matches, model)
		}
	}

	for _, model := range SupportedProviders[provider] {
		if strings.Contains(strings.ToLower(model), userInput) {
			add(model)
		}
	}
	for alias, full := range ModelAliases[provider] {
		if strings.Contains(alias, userInput) {
			add(full)
		}
	}

	sort.Strings(matches)
	return matches
}

// ValidateAPIKey checks API key format and basic requirements. Returns nil
// when the format is plausible for the provider.
func ValidateAPIKey(provider, apiKey string) error {
	if apiKey == "" {
		return fmt.Errorf("API key cannot be empty")
	}
	if provider == "anthropic" && !strings.HasPrefix(apiKey, "sk-ant-") {
		return fmt.Errorf("anthropic API keys should start with 'sk-ant-'")
	}
	if provider == "openai" && !strings.HasPrefix(apiKey, "sk-") {
		return fmt.Errorf("openai API keys should start with 'sk-'")
	}
	return nil
}

// ProviderError is an error from a completion provider.
type ProviderError struct {
	Provider string
	Message  string
	Cause    error
}

func (e *ProviderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s provider error: %s: %v", e.Provider, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s provider error: %s", e.Provider, e.Message)
}

// Unwrap returns the underlying cause.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}
