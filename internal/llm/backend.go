package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/config"
	errs "github.com/mentathq/mentat/internal/errors"
)

// ErrNoConversation indicates an operation that needs an active conversation
// was called while Idle.
var ErrNoConversation = errors.New("no active conversation")

// Store keys for the persisted LLM configuration.
const (
	KeyProvider          = "LLM_PROVIDER"
	KeyModel             = "LLM_MODEL"
	KeyBootstrapComplete = "BOOTSTRAP_COMPLETE"
)

// taskTwitterSetup selects the Twitter OAuth-focused system prompt.
const taskTwitterSetup = "twitter_setup"

const setupPromptTemplate = `You are an expert at configuring Twitter API access and OAuth permissions.
Focus on helping the user fix OAuth write permissions issues.

Guidelines:
1. Be specific about Twitter Developer Portal locations
2. Mention exact UI elements and settings
3. Give one clear step at a time
4. Focus on write permissions configuration

Current context:
%s`

const assistantPromptTemplate = `You are %s, a technical assistant helping users with workflow automation.
Always introduce yourself when starting a new conversation.
Present available workflows and let users choose.
Be conversational but concise.

Current context:
%s`

// Options configures a Backend.
type Options struct {
	// AssistantName is the persona's display name.
	AssistantName string

	// Persona is the personality text injected into the system snapshot.
	Persona string

	// MaxTokens caps completion length (0 for provider default).
	MaxTokens int

	// Logger receives diagnostic events. Defaults to a no-op logger.
	Logger *zap.Logger

	// Factory builds completers; defaults to the registered providers.
	// Overridable for tests.
	Factory Factory
}

// Backend manages LLM configuration, one active conversation and completion
// round-trips. It is a two-state machine: Idle (no conversation) and
// InConversation. There is no explicit end transition; the next
// StartConversation overwrites the previous conversation.
//
// A Backend is not safe for concurrent use; the process model is
// single-threaded and synchronous.
type Backend struct {
	store config.Store
	log   *zap.Logger

	assistantName string
	persona       string
	maxTokens     int
	factory       Factory

	workflows []string

	provider  string
	model     string
	completer Completer

	conv *Conversation
}

// NewBackend creates a backend over the given configuration store.
func NewBackend(store config.Store, opts Options) *Backend {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Factory == nil {
		opts.Factory = func(cfg *Config) (Completer, error) { return NewCompleter(cfg) }
	}
	if opts.AssistantName == "" {
		opts.AssistantName = "Thufir"
	}
	if opts.Persona == "" {
		opts.Persona = config.DefaultPersona
	}

	return &Backend{
		store:         store,
		log:           opts.Logger,
		assistantName: opts.AssistantName,
		persona:       opts.Persona,
		maxTokens:     opts.MaxTokens,
		factory:       opts.Factory,
	}
}

// AssistantName returns the persona's display name.
func (b *Backend) AssistantName() string { return b.assistantName }

// SetWorkflows records the discoverable workflow names included in each
// conversation's system snapshot.
func (b *Backend) SetWorkflows(names []string) {
	b.workflows = names
}

// Active reports whether a conversation is in progress.
func (b *Backend) Active() bool { return b.conv != nil }

// Conversation returns the active conversation, or nil when Idle.
func (b *Backend) Conversation() *Conversation { return b.conv }

// StartConversation transitions to InConversation, resetting history and
// merging the supplied context with a freshly computed system snapshot.
func (b *Backend) StartConversation(task string, extra map[string]string) {
	merged := make(map[string]string, len(extra)+8)
	for k, v := range extra {
		merged[k] = v
	}
	for k, v := range systemSnapshot(b.persona, b.workflows) {
		merged[k] = v
	}
	merged["task"] = task
	merged["assistant_name"] = b.assistantName

	b.conv = &Conversation{
		ID:       uuid.NewString(),
		Task:     task,
		Context:  merged,
		PausedAt: -1,
	}

	b.log.Debug("conversation started",
		zap.String("id", b.conv.ID),
		zap.String("task", task))
}

// PauseConversation annotates the active conversation with the current
// history length. It does not transition to Idle and does not truncate
// history; a no-op when Idle.
func (b *Backend) PauseConversation() {
	if b.conv == nil {
		return
	}
	b.conv.PausedAt = len(b.conv.History)
	b.log.Debug("conversation paused",
		zap.String("id", b.conv.ID),
		zap.Int("history_len", b.conv.PausedAt))
}

// ResumeConversation synthesizes a recap prompt from the current task,
// context and last exchange, then delegates to Completion. Returns
// ErrNoConversation when Idle.
func (b *Backend) ResumeConversation(ctx context.Context) (string, error) {
	if b.conv == nil {
		return "", ErrNoConversation
	}

	previous := "Starting fresh"
	if last, ok := b.conv.LastTurn(); ok {
		previous = fmt.Sprintf("%s: %s", last.Role, last.Content)
	}

	prompt := fmt.Sprintf(`Resuming our previous conversation about %s.
Context:
%s
Previous interaction: %s

Please continue where we left off.`,
		b.conv.Task, formatContext(b.conv.Context), previous)

	return b.Completion(ctx, prompt)
}

// Completion performs one completion round-trip.
//
// When InConversation, the outgoing message list is the task-specific system
// prompt followed by the full history and the new prompt; the exchange is
// appended to history only after a successful response. Idle calls send the
// bare prompt and are never recorded.
//
// All failures degrade to an error wrapping ErrLLMUnavailable; a completion
// failure is never fatal to the caller and never leaves a partial turn in
// history.
func (b *Backend) Completion(ctx context.Context, prompt string) (string, error) {
	if err := b.ensureConfigured(); err != nil {
		return "", err
	}

	var messages []Message
	if b.conv != nil {
		messages = append(messages, Message{Role: RoleSystem, Content: b.systemPrompt()})
		messages = append(messages, b.conv.History...)
	}
	messages = append(messages, Message{Role: RoleUser, Content: prompt})

	resp, err := b.completer.Complete(ctx, b.model, messages)
	if err != nil {
		b.log.Warn("completion failed",
			zap.String("provider", b.provider),
			zap.String("model", b.model),
			zap.Error(err))
		return "", errs.Wrap(errs.ErrLLMUnavailable, "completion")
	}

	if b.conv != nil {
		b.conv.History = append(b.conv.History,
			Message{Role: RoleUser, Content: prompt},
			Message{Role: RoleAssistant, Content: resp.Content},
		)
	}

	return resp.Content, nil
}

// ensureConfigured lazily loads provider/model from the store and builds the
// completer. Fails with ErrLLMUnavailable when configuration is absent.
func (b *Backend) ensureConfigured() error {
	if b.provider == "" || b.model == "" {
		b.provider = b.store.Get(KeyProvider)
		b.model = b.store.Get(KeyModel)
		if b.provider == "" || b.model == "" {
			return errs.Wrap(errs.ErrLLMUnavailable, "not configured")
		}
	}

	if b.completer == nil {
		completer, err := b.factory(&Config{
			Provider:  b.provider,
			APIKey:    b.store.Get(apiKeyVar(b.provider)),
			MaxTokens: b.maxTokens,
		})
		if err != nil {
			b.log.Warn("completer construction failed", zap.Error(err))
			return errs.Wrap(errs.ErrLLMUnavailable, "provider")
		}
		b.completer = completer
	}

	return nil
}

// systemPrompt fills the task template with the conversation context.
func (b *Backend) systemPrompt() string {
	rendered := formatContext(b.conv.Context)
	if strings.Contains(b.conv.Task, taskTwitterSetup) {
		return fmt.Sprintf(setupPromptTemplate, rendered)
	}
	return fmt.Sprintf(assistantPromptTemplate, b.assistantName, rendered)
}

// IsConfigured checks whether the store holds a complete, plausible LLM
// configuration.
func (b *Backend) IsConfigured() bool {
	provider := b.store.Get(KeyProvider)
	model := b.store.Get(KeyModel)
	if provider == "" || model == "" {
		return false
	}
	return ValidateAPIKey(provider, b.store.Get(apiKeyVar(provider))) == nil
}

// SaveConfig persists a validated provider/model/key triple, clearing the
// keys of every other supported provider first.
func (b *Backend) SaveConfig(provider, model, apiKey string) error {
	for name := range SupportedProviders {
		if err := b.store.Unset(apiKeyVar(name)); err != nil {
			return err
		}
	}

	if err := b.store.Set(apiKeyVar(provider), apiKey); err != nil {
		return err
	}
	if err := b.store.Set(KeyProvider, provider); err != nil {
		return err
	}
	if err := b.store.Set(KeyModel, model); err != nil {
		return err
	}

	// Reset the lazily built completer so the next call picks up the new
	// configuration.
	b.provider = provider
	b.model = model
	b.completer = nil

	b.log.Info("LLM configuration saved",
		zap.String("provider", provider),
		zap.String("model", model))
	return nil
}

// TestConfiguration probes a candidate configuration with a minimal
// completion before it is saved.
func (b *Backend) TestConfiguration(ctx context.Context, provider, model, apiKey string) error {
	completer, err := b.factory(&Config{Provider: provider, APIKey: apiKey, MaxTokens: 5})
	if err != nil {
		return err
	}

	_, err = completer.Complete(ctx, model, []Message{{Role: RoleUser, Content: "test"}})
	return err
}

// apiKeyVar returns the store variable holding a provider's API key.
func apiKeyVar(provider string) string {
	return strings.ToUpper(provider) + "_API_KEY"
}
