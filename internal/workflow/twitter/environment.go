package twitter

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/config"
	errs "github.com/mentathq/mentat/internal/errors"
)

// requiredVar pairs a store variable with its prompt description. Order
// matters for the configuration walk.
type requiredVar struct {
	Name        string
	Description string
}

// RequiredVars are the credentials the workflow cannot run without.
var RequiredVars = []requiredVar{
	{"TWITTER_API_KEY", "Twitter API Key (Consumer Key)"},
	{"TWITTER_API_SECRET", "Twitter API Secret (Consumer Secret)"},
	{"TWITTER_ACCESS_TOKEN", "Twitter Access Token"},
	{"TWITTER_ACCESS_TOKEN_SECRET", "Twitter Access Token Secret"},
}

// SetupStep is one stage of the guided OAuth walkthrough.
type SetupStep struct {
	Title        string
	Instructions string
}

// OAuthSetupSteps walk the user through the Twitter Developer Portal.
var OAuthSetupSteps = []SetupStep{
	{
		Title:        "Access Developer Portal",
		Instructions: "1. Go to https://developer.twitter.com/portal/projects",
	},
	{
		Title: "Configure OAuth Settings",
		Instructions: `1. Select your app
2. Go to 'Settings' > 'User authentication settings'
3. Enable 'OAuth 1.0a'
4. Set App permissions to 'Read and Write'
5. Save changes`,
	},
	{
		Title: "Generate Tokens",
		Instructions: `1. Go to 'Keys and tokens' tab
2. Generate new access tokens if needed
3. Copy your tokens`,
	},
}

// Status describes the current credential configuration.
type Status struct {
	Complete   bool
	Missing    []string
	Configured []string
}

// Completer is the LLM surface the workflow uses for reply generation and
// setup hints.
type Completer interface {
	Completion(ctx context.Context, prompt string) (string, error)
}

// ConversationStarter is implemented by completers that can seed a task
// conversation before setup hints are requested.
type ConversationStarter interface {
	StartConversation(task string, extra map[string]string)
}

// Environment manages the workflow's credential variables in the injected
// store and runs the interactive configuration walkthrough.
type Environment struct {
	store       config.Store
	llm         Completer
	log         *zap.Logger
	interactive bool
}

// NewEnvironment creates the credential manager. A nil llm disables setup
// hints; interactive=false turns Configure into a hard failure so headless
// runs degrade to a clear error instead of blocking on a prompt.
func NewEnvironment(store config.Store, llm Completer, log *zap.Logger, interactive bool) *Environment {
	if log == nil {
		log = zap.NewNop()
	}
	return &Environment{store: store, llm: llm, log: log, interactive: interactive}
}

// Exists reports whether every required variable has a value. This is the
// cheap check behind ValidateEnvironment.
func (e *Environment) Exists() bool {
	for _, v := range RequiredVars {
		if e.store.Get(v.Name) == "" {
			return false
		}
	}
	return true
}

// Status returns which required variables are present and which are missing.
func (e *Environment) Status() Status {
	status := Status{Complete: true}
	for _, v := range RequiredVars {
		if e.store.Get(v.Name) == "" {
			status.Missing = append(status.Missing, v.Name)
			status.Complete = false
		} else {
			status.Configured = append(status.Configured, v.Name)
		}
	}
	return status
}

// Credentials reads the current credential set from the store.
func (e *Environment) Credentials() Credentials {
	return Credentials{
		APIKey:       e.store.Get("TWITTER_API_KEY"),
		APISecret:    e.store.Get("TWITTER_API_SECRET"),
		AccessToken:  e.store.Get("TWITTER_ACCESS_TOKEN"),
		AccessSecret: e.store.Get("TWITTER_ACCESS_TOKEN_SECRET"),
	}
}

// Fix runs the interactive configuration walkthrough. Headless runs fail
// with ErrEnvironmentNotConfigured immediately.
func (e *Environment) Fix(ctx context.Context) error {
	if !e.interactive {
		return errs.Wrap(errs.ErrEnvironmentNotConfigured, "twitter credentials")
	}
	return e.Configure(ctx)
}

// Configure walks the OAuth setup steps and prompts for each credential,
// with LLM-generated hints when a backend is configured. Existing values are
// kept when the user submits an empty input.
func (e *Environment) Configure(ctx context.Context) error {
	if e.llm != nil {
		if starter, ok := e.llm.(ConversationStarter); ok {
			status := e.Status()
			starter.StartConversation("twitter_setup", map[string]string{
				"credentials_missing":    strings.Join(status.Missing, ", "),
				"credentials_configured": strings.Join(status.Configured, ", "),
			})
		}
	}

	for _, step := range OAuthSetupSteps {
		done := true
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(step.Title).
					Description(step.Instructions).
					Affirmative("Done").
					Negative("Abort").
					Value(&done),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
		if !done {
			return errs.Wrap(errs.ErrEnvironmentNotConfigured, "setup aborted")
		}
	}

	for _, v := range RequiredVars {
		if err := e.promptCredential(ctx, v); err != nil {
			return err
		}
	}

	e.log.Info("twitter credentials configured")
	return nil
}

// promptCredential asks for one credential, showing a masked hint of the
// current value and an LLM tip when available.
func (e *Environment) promptCredential(ctx context.Context, v requiredVar) error {
	description := v.Description
	if e.llm != nil {
		if hint, err := e.llm.Completion(ctx, "Guide user for "+v.Description); err == nil && hint != "" {
			description = hint
		}
	}

	current := e.store.Get(v.Name)
	title := v.Description
	if current != "" {
		title += fmt.Sprintf(" [current: %s...]", maskCredential(current))
	}

	var value string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title(title).
				Description(description).
				EchoMode(huh.EchoModePassword).
				Value(&value).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" && current == "" {
						return fmt.Errorf("%s cannot be empty", v.Description)
					}
					return nil
				}),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("form error: %w", err)
	}

	value = strings.TrimSpace(value)
	if value == "" {
		// Keep the existing credential.
		return nil
	}
	return e.store.Set(v.Name, value)
}

// maskCredential shows the first four characters of a secret.
func maskCredential(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[:4]
}
