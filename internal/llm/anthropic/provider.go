// Package anthropic provides an Anthropic Messages API completion provider.
package anthropic

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

// apiVersion is the pinned Messages API version header.
const apiVersion = "2023-06-01"

// defaultMaxTokens applies when no cap is configured; the Messages API
// requires max_tokens on every request.
const defaultMaxTokens = 1024

// Provider is an Anthropic completion provider.
type Provider struct {
	config *llm.Config
	client *http.Client
}

// NewProvider creates a new Anthropic provider.
func NewProvider(cfg *llm.Config) (*Provider, error) {
	if cfg == nil {
		cfg = &llm.Config{Provider: "anthropic"}
	}

	// Get API key from config or environment
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if cfg.APIKey == "" {
		return nil, &llm.ProviderError{
			Provider: "anthropic",
			Message:  "missing API key (set ANTHROPIC_API_KEY)",
		}
	}

	return &Provider{
		config: cfg,
		client: &http.Client{},
	}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "anthropic"
}

// messagesRequest represents a Messages API request. The system prompt is a
// top-level field, not a message role.
type messagesRequest struct {
	Model     string        `json:"model"`
	System    string        `json:"system,omitempty"`
	Messages  []llm.Message `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

// messagesResponse represents a Messages API response.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Error   *apiError      `json:"error,omitempty"`
}

// contentBlock represents one block in the response content.
type contentBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// apiError represents an API error.
type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Complete performs one completion round-trip. System messages are lifted
// out of the message list into the request's system field.
func (p *Provider) Complete(ctx context.Context, model string, messages []llm.Message) (llm.Message, error) {
	baseURL := p.config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.anthropic.com/v1"
	}

	maxTokens := p.config.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	reqBody := messagesRequest{
		Model:     model,
		MaxTokens: maxTokens,
	}
	for _, m := range messages {
		if m.Role == llm.RoleSystem {
			reqBody.System = m.Content
			continue
		}
		reqBody.Messages = append(reqBody.Messages, m)
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return llm.Message{}, err
	}

	url := fmt.Sprintf("%s/messages", baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(jsonData))
	if err != nil {
		return llm.Message{}, err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", p.config.APIKey)
	req.Header.Set("anthropic-version", apiVersion)

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

	var msgResp messagesResponse
	if err := json.Unmarshal(body, &msgResp); err != nil {
		return llm.Message{}, err
	}

	if msgResp.Error != nil {
		return llm.Message{}, &llm.ProviderError{Provider: p.Name(), Message: msgResp.Error.Message}
	}

	var text string
	for _, block := range msgResp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return llm.Message{}, &llm.ProviderError{Provider: p.Name(), Message: "empty response content"}
	}

	return llm.Message{Role: llm.RoleAssistant, Content: text}, nil
}

func init() {
	// Register the provider
	llm.RegisterProvider("anthropic", func(cfg *llm.Config) (llm.Completer, error) {
		return NewProvider(cfg)
	})
}
