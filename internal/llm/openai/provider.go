// Package openai provides an OpenAI-compatible completion provider.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/mentathq/mentat/internal/llm"
)

// Provider is an OpenAI-compatible completion provider.
type Provider struct {
	config *llm.Config
	client *http.Client
}

// NewProvider creates a new OpenAI-compatible provider.
func NewProvider(cfg *llm.Config) (*Provider, error) {
	if cfg == nil {
		cfg = &llm.Config{Provider: "openai"}
	}

	// Get API key from config or environment
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, &llm.ProviderError{
			Provider: "openai",
			Message:  "missing API key (set OPENAI_API_KEY)",
		}
	}

	return &Provider{
		config: cfg,
		client: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	if p.config.BaseURL != "" {
		return "openai-compatible"
	}
	return "openai"
}

// chatRequest represents a chat API request.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
}

// chatResponse represents a chat API response.
type chatResponse struct {
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

// choice represents a choice in the response.
type choice struct {
	Message llm.Message `json:"message"`
}

// apiError represents an API error.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

// Complete performs one chat completion round-trip.
func (p *Provider) Complete(ctx context.Context, model string, messages []llm.Message) (llm.Message, error) {
	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	reqBody := chatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: p.config.MaxTokens,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Message{}, err
	}

	url := fmt.Sprintf("%s/chat/completions", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return llm.Message{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", p.config.APIKey))

	resp, err := p.client.Do(req)
	if err != nil {
		return llm.Message{}, &llm.ProviderError{Provider: p.Name(), Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return llm.Message{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return llm.Message{}, &llm.ProviderError{
			Provider: p.Name(),
			Message:  fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body)),
		}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return llm.Message{}, err
	}

	if chatResp.Error != nil {
		return llm.Message{}, &llm.ProviderError{Provider: p.Name(), Message: chatResp.Error.Message}
	}

	if len(chatResp.Choices) == 0 {
		return llm.Message{}, &llm.ProviderError{Provider: p.Name(), Message: "no choices in response"}
	}

	return chatResp.Choices[0].Message, nil
}

func init() {
	// Register the provider
	llm.RegisterProvider("openai", func(cfg *llm.Config) (llm.Completer, error) {
		return NewProvider(cfg)
	})
}
