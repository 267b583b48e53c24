package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentathq/mentat/internal/llm"
)

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotReq chatRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		resp := chatResponse{
			Choices: []choice{{Message: llm.Message{Role: "assistant", Content: "hello there"}}},
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	p, err := NewProvider(&llm.Config{APIKey: "sk-test", BaseURL: srv.URL, MaxTokens: 100})
	require.NoError(t, err)

	msg, err := p.Complete(context.Background(), "gpt-4", []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hi"},
	})
	require.NoError(t, err)

	assert.Equal(t, "hello there", msg.Content)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Equal(t, "gpt-4", gotReq.Model)
	assert.Equal(t, 100, gotReq.MaxTokens)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "be brief", gotReq.Messages[0].Content)
}

func TestComplete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"invalid key"}}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p, err := NewProvider(&llm.Config{APIKey: "sk-bad", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "gpt-4", []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.Error(t, err)

	var perr *llm.ProviderError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Message, "status 401")
}

func TestComplete_APIErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{Error: &apiError{Message: "model overloaded"}})
	}))
	defer srv.Close()

	p, err := NewProvider(&llm.Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "gpt-4", []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model overloaded")
}

func TestComplete_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer srv.Close()

	p, err := NewProvider(&llm.Config{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = p.Complete(context.Background(), "gpt-4", []llm.Message{{Role: llm.RoleUser, Content: "hi"}})
	assert.Error(t, err)
}

func TestNewProvider_MissingKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	_, err := NewProvider(&llm.Config{})
	assert.Error(t, err)
}

func TestNewProvider_KeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	p, err := NewProvider(&llm.Config{})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())
}

func TestName_CompatibleEndpoint(t *testing.T) {
	p, err := NewProvider(&llm.Config{APIKey: "sk-test", BaseURL: "http://localhost:11434/v1"})
	require.NoError(t, err)
	assert.Equal(t, "openai-compatible", p.Name())
}

func TestRegistered(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-env")

	c, err := llm.NewCompleter(&llm.Config{Provider: "openai"})
	require.NoError(t, err)
	assert.Equal(t, "openai", c.Name())
}
