package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/mentathq/mentat/internal/errors"
)

// fakeStore is an in-memory config.Store.
type fakeStore struct {
	vars map[string]string
}

func newFakeStore(vars map[string]string) *fakeStore {
	if vars == nil {
		vars = map[string]string{}
	}
	return &fakeStore{vars: vars}
}

func (s *fakeStore) Get(name string) string { return s.vars[name] }

func (s *fakeStore) Set(name, value string) error {
	s.vars[name] = value
	return nil
}

func (s *fakeStore) Unset(name string) error {
	delete(s.vars, name)
	return nil
}

// fakeCompleter returns canned responses and records every call.
type fakeCompleter struct {
	response string
	err      error
	calls    [][]Message
}

func (c *fakeCompleter) Name() string { return "fake" }

func (c *fakeCompleter) Complete(_ context.Context, _ string, messages []Message) (Message, error) {
	c.calls = append(c.calls, messages)
	if c.err != nil {
		return Message{}, c.err
	}
	return Message{Role: RoleAssistant, Content: c.response}, nil
}

func configuredStore() *fakeStore {
	return newFakeStore(map[string]string{
		KeyProvider:      "openai",
		KeyModel:         "gpt-4",
		"OPENAI_API_KEY": "sk-test",
	})
}

func newTestBackend(store *fakeStore, completer *fakeCompleter) *Backend {
	return NewBackend(store, Options{
		Logger: nil,
		Factory: func(cfg *Config) (Completer, error) {
			return completer, nil
		},
	})
}

func TestBackend_StartConversation(t *testing.T) {
	b := newTestBackend(configuredStore(), &fakeCompleter{})
	b.SetWorkflows([]string{"twitter"})

	b.StartConversation("troubleshooting", map[string]string{"error": "boom"})

	require.True(t, b.Active())
	conv := b.Conversation()
	assert.NotEmpty(t, conv.ID)
	assert.Equal(t, "troubleshooting", conv.Task)
	assert.Equal(t, "boom", conv.Context["error"])
	assert.Equal(t, "twitter", conv.Context["workflows_available"])
	assert.Empty(t, conv.History)
	assert.Equal(t, -1, conv.PausedAt)
}

func TestBackend_StartConversation_ResetsHistory(t *testing.T) {
	completer := &fakeCompleter{response: "ok"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("first", nil)
	_, err := b.Completion(context.Background(), "hello")
	require.NoError(t, err)
	require.Len(t, b.Conversation().History, 2)

	firstID := b.Conversation().ID
	b.StartConversation("second", nil)

	assert.NotEqual(t, firstID, b.Conversation().ID)
	assert.Empty(t, b.Conversation().History)
}

func TestBackend_Completion_AccumulatesHistoryInOrder(t *testing.T) {
	completer := &fakeCompleter{response: "reply"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("chat", nil)

	_, err := b.Completion(context.Background(), "one")
	require.NoError(t, err)
	_, err = b.Completion(context.Background(), "two")
	require.NoError(t, err)

	history := b.Conversation().History
	require.Len(t, history, 4)
	assert.Equal(t, Message{Role: RoleUser, Content: "one"}, history[0])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "reply"}, history[1])
	assert.Equal(t, Message{Role: RoleUser, Content: "two"}, history[2])
	assert.Equal(t, Message{Role: RoleAssistant, Content: "reply"}, history[3])
}

func TestBackend_Completion_SendsSystemPromptAndHistory(t *testing.T) {
	completer := &fakeCompleter{response: "reply"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("chat", nil)

	_, err := b.Completion(context.Background(), "one")
	require.NoError(t, err)
	_, err = b.Completion(context.Background(), "two")
	require.NoError(t, err)

	require.Len(t, completer.calls, 2)

	first := completer.calls[0]
	require.Len(t, first, 2)
	assert.Equal(t, RoleSystem, first[0].Role)
	assert.Contains(t, first[0].Content, "Thufir")
	assert.Equal(t, "one", first[1].Content)

	second := completer.calls[1]
	require.Len(t, second, 4)
	assert.Equal(t, RoleSystem, second[0].Role)
	assert.Equal(t, "one", second[1].Content)
	assert.Equal(t, "reply", second[2].Content)
	assert.Equal(t, "two", second[3].Content)
}

func TestBackend_Completion_TwitterSetupPrompt(t *testing.T) {
	completer := &fakeCompleter{response: "step one"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("twitter_setup", nil)
	_, err := b.Completion(context.Background(), "help")
	require.NoError(t, err)

	require.Len(t, completer.calls, 1)
	assert.Contains(t, completer.calls[0][0].Content, "OAuth")
}

func TestBackend_Completion_IdleNeverRecords(t *testing.T) {
	completer := &fakeCompleter{response: "answer"}
	b := newTestBackend(configuredStore(), completer)

	got, err := b.Completion(context.Background(), "standalone question")
	require.NoError(t, err)
	assert.Equal(t, "answer", got)

	assert.False(t, b.Active())
	require.Len(t, completer.calls, 1)
	// Bare prompt, no system message.
	require.Len(t, completer.calls[0], 1)
	assert.Equal(t, RoleUser, completer.calls[0][0].Role)
}

func TestBackend_Completion_FailureLeavesHistoryUntouched(t *testing.T) {
	completer := &fakeCompleter{response: "ok"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("chat", nil)
	_, err := b.Completion(context.Background(), "one")
	require.NoError(t, err)
	require.Len(t, b.Conversation().History, 2)

	completer.err = errors.New("upstream down")
	_, err = b.Completion(context.Background(), "two")
	require.Error(t, err)
	assert.True(t, errs.IsLLMUnavailable(err))

	assert.Len(t, b.Conversation().History, 2)
}

func TestBackend_Completion_Unconfigured(t *testing.T) {
	b := newTestBackend(newFakeStore(nil), &fakeCompleter{})

	_, err := b.Completion(context.Background(), "hello")
	require.Error(t, err)
	assert.True(t, errs.IsLLMUnavailable(err))
}

func TestBackend_Completion_LoadsProviderFromStore(t *testing.T) {
	store := configuredStore()
	var seen *Config
	b := NewBackend(store, Options{
		Factory: func(cfg *Config) (Completer, error) {
			seen = cfg
			return &fakeCompleter{response: "ok"}, nil
		},
	})

	_, err := b.Completion(context.Background(), "hello")
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "openai", seen.Provider)
	assert.Equal(t, "sk-test", seen.APIKey)
}

func TestBackend_PauseAndResume(t *testing.T) {
	completer := &fakeCompleter{response: "continuing"}
	b := newTestBackend(configuredStore(), completer)

	b.StartConversation("chat", nil)
	_, err := b.Completion(context.Background(), "one")
	require.NoError(t, err)

	b.PauseConversation()
	assert.Equal(t, 2, b.Conversation().PausedAt)
	assert.True(t, b.Active())

	got, err := b.ResumeConversation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "continuing", got)

	// The recap prompt references the task and the last exchange.
	last := completer.calls[len(completer.calls)-1]
	recap := last[len(last)-1].Content
	assert.Contains(t, recap, "chat")
	assert.Contains(t, recap, "continue where we left off")
}

func TestBackend_Resume_Idle(t *testing.T) {
	b := newTestBackend(configuredStore(), &fakeCompleter{})

	_, err := b.ResumeConversation(context.Background())
	assert.ErrorIs(t, err, ErrNoConversation)
}

func TestBackend_Pause_Idle(t *testing.T) {
	b := newTestBackend(configuredStore(), &fakeCompleter{})
	b.PauseConversation()
	assert.False(t, b.Active())
}

func TestBackend_IsConfigured(t *testing.T) {
	b := newTestBackend(configuredStore(), &fakeCompleter{})
	assert.True(t, b.IsConfigured())

	empty := newTestBackend(newFakeStore(nil), &fakeCompleter{})
	assert.False(t, empty.IsConfigured())

	badKey := newTestBackend(newFakeStore(map[string]string{
		KeyProvider:      "anthropic",
		KeyModel:         "claude-3-opus-20240229",
		"ANTHROPIC_API_KEY": "sk-wrong-prefix",
	}), &fakeCompleter{})
	assert.False(t, badKey.IsConfigured())
}

func TestBackend_SaveConfig(t *testing.T) {
	store := newFakeStore(map[string]string{
		"OPENAI_API_KEY": "sk-old",
	})
	b := newTestBackend(store, &fakeCompleter{})

	err := b.SaveConfig("anthropic", "claude-3-sonnet-20240229", "sk-ant-new")
	require.NoError(t, err)

	assert.Equal(t, "anthropic", store.Get(KeyProvider))
	assert.Equal(t, "claude-3-sonnet-20240229", store.Get(KeyModel))
	assert.Equal(t, "sk-ant-new", store.Get("ANTHROPIC_API_KEY"))
	// Competing provider keys are cleared.
	assert.Empty(t, store.Get("OPENAI_API_KEY"))
}

func TestBackend_TestConfiguration(t *testing.T) {
	completer := &fakeCompleter{response: "pong"}
	var seen *Config
	b := NewBackend(newFakeStore(nil), Options{
		Factory: func(cfg *Config) (Completer, error) {
			seen = cfg
			return completer, nil
		},
	})

	err := b.TestConfiguration(context.Background(), "openai", "gpt-4", "sk-probe")
	require.NoError(t, err)

	require.NotNil(t, seen)
	assert.Equal(t, "sk-probe", seen.APIKey)
	assert.Equal(t, 5, seen.MaxTokens)
	require.Len(t, completer.calls, 1)
}

func TestConversation_LastTurn(t *testing.T) {
	conv := &Conversation{}
	_, ok := conv.LastTurn()
	assert.False(t, ok)

	conv.History = append(conv.History,
		Message{Role: RoleUser, Content: "q"},
		Message{Role: RoleAssistant, Content: "a"},
	)
	last, ok := conv.LastTurn()
	require.True(t, ok)
	assert.Equal(t, "a", last.Content)
}

func TestFormatContext_Deterministic(t *testing.T) {
	ctx := map[string]string{"b": "2", "a": "1", "c": "3"}
	assert.Equal(t, "a: 1\nb: 2\nc: 3\n", formatContext(ctx))
}
