package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/mentathq/mentat/internal/config"
	"github.com/mentathq/mentat/internal/llm"
	"github.com/mentathq/mentat/internal/workflow/twitter"
)

// SetupOptions contains the options for the setup command.
type SetupOptions struct {
	Workflow string

	// Scriptable/flag options for --no-tui mode
	Provider string
	Model    string
	APIKey   string
}

// NewSetupCommand creates the setup command.
func NewSetupCommand() *cobra.Command {
	opts := &SetupOptions{}

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Configure the LLM backend or a workflow",
		Long: `Configure the LLM backend or a workflow's credentials.

Without flags, a wizard walks you through choosing a provider, model and
API key, tests the configuration with a live request, and saves it.

With --workflow, the named workflow's credentials are configured instead
(e.g. 'mentat setup --workflow twitter').

Use --no-tui with --provider, --model and --api-key for scripted setup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSetup(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVar(&opts.Workflow, "workflow", "", "configure the named workflow instead of the LLM backend")
	cmd.Flags().StringVar(&opts.Provider, "provider", "", "LLM provider (openai or anthropic)")
	cmd.Flags().StringVar(&opts.Model, "model", "", "model name, alias or substring")
	cmd.Flags().StringVar(&opts.APIKey, "api-key", "", "provider API key")

	return cmd
}

func runSetup(ctx context.Context, opts *SetupOptions) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	// Seed the credential store so later writes have a file to update.
	if err := s.store.CreateDefault(); err != nil {
		return fmt.Errorf("creating credential store: %w", err)
	}

	if opts.Workflow != "" {
		return runWorkflowSetup(ctx, s, opts.Workflow)
	}
	return runLLMSetup(ctx, s, opts)
}

// runLLMSetup configures the provider, model and API key, verifying them
// with a live request before saving.
func runLLMSetup(ctx context.Context, s *session, opts *SetupOptions) error {
	provider := opts.Provider
	modelInput := opts.Model
	apiKey := opts.APIKey

	if !s.cfg.TUI.Enabled {
		if provider == "" || modelInput == "" || apiKey == "" {
			return fmt.Errorf("--provider, --model and --api-key are required in non-interactive mode")
		}
	} else {
		if err := promptLLMConfig(&provider, &modelInput, &apiKey); err != nil {
			return fmt.Errorf("form error: %w", err)
		}
	}

	model, err := resolveModel(provider, modelInput)
	if err != nil {
		return err
	}
	if err := llm.ValidateAPIKey(provider, apiKey); err != nil {
		return err
	}

	fmt.Printf("Testing %s with model %s...\n", provider, model)
	if err := s.backend.TestConfiguration(ctx, provider, model, apiKey); err != nil {
		return fmt.Errorf("configuration test failed: %w", err)
	}
	fmt.Println("✓ Connection verified")

	if err := s.backend.SaveConfig(provider, model, apiKey); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	if err := s.store.Set(llm.KeyBootstrapComplete, "true"); err != nil {
		return fmt.Errorf("saving configuration: %w", err)
	}
	fmt.Printf("✓ Configuration saved to %s\n", s.store.Path())

	configPath := appConfigPath()
	if err := persistLLMDefaults(s.cfg, configPath, provider, model); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	fmt.Printf("✓ Defaults recorded in %s\n", configPath)

	fmt.Println("\nYou're ready to go! Try 'mentat chat' to start a session.")
	return nil
}

// appConfigPath returns the config file location, defaulting to the XDG path
// when no config exists yet.
func appConfigPath() string {
	if path := config.DetectConfigPath(); path != "" {
		return path
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "mentat", "config.toml")
}

// persistLLMDefaults records the chosen provider and model in the app config
// so they survive as fallbacks when the credential store is reset.
func persistLLMDefaults(cfg *config.Config, path, provider, model string) error {
	cfg.LLM.Provider = provider
	cfg.LLM.Model = model
	return config.Write(path, cfg)
}

// promptLLMConfig runs the interactive provider/model/key wizard, filling in
// any value not already set by flags.
func promptLLMConfig(provider, modelInput, apiKey *string) error {
	if *provider == "" {
		names := llm.ProviderNames()
		options := make([]huh.Option[string], 0, len(names))
		for _, name := range names {
			options = append(options, huh.NewOption(name, name))
		}

		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("LLM provider").
					Options(options...).
					Value(provider),
			),
		).Run(); err != nil {
			return err
		}
	}

	if *modelInput == "" {
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Model").
					Description(fmt.Sprintf("Available: %s (aliases like 'opus' or 'gpt4' work too)",
						strings.Join(llm.ProviderModels(*provider), ", "))).
					Validate(func(input string) error {
						if len(llm.FindMatchingModels(*provider, input)) == 0 {
							return fmt.Errorf("no matching model")
						}
						return nil
					}).
					Value(modelInput),
			),
		).Run(); err != nil {
			return err
		}
	}

	// Disambiguate when the input matches several models.
	if matches := llm.FindMatchingModels(*provider, *modelInput); len(matches) > 1 {
		options := make([]huh.Option[string], 0, len(matches))
		for _, m := range matches {
			options = append(options, huh.NewOption(m, m))
		}

		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewSelect[string]().
					Title("Which model?").
					Options(options...).
					Value(modelInput),
			),
		).Run(); err != nil {
			return err
		}
	}

	if *apiKey == "" {
		if err := huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("API key").
					EchoMode(huh.EchoModePassword).
					Validate(func(input string) error {
						return llm.ValidateAPIKey(*provider, input)
					}).
					Value(apiKey),
			),
		).Run(); err != nil {
			return err
		}
	}

	return nil
}

// resolveModel expands a model name, alias or substring to exactly one full
// model identifier.
func resolveModel(provider, input string) (string, error) {
	matches := llm.FindMatchingModels(provider, input)
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no model matching %q for %s (available: %s)",
			input, provider, strings.Join(llm.ProviderModels(provider), ", "))
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("model %q is ambiguous for %s (matches: %s)",
			input, provider, strings.Join(matches, ", "))
	}
}

// runWorkflowSetup configures a workflow's credentials and verifies them
// against the live API.
func runWorkflowSetup(ctx context.Context, s *session, name string) error {
	if name != "twitter" {
		return fmt.Errorf("unknown workflow: %s", name)
	}

	env := twitter.NewEnvironment(s.store, s.backend, s.log, s.cfg.TUI.Enabled)
	if err := env.Configure(ctx); err != nil {
		return err
	}

	fmt.Println("Verifying credentials...")
	client := twitter.NewClient(env.Credentials())
	me, err := client.Me(ctx)
	if err != nil {
		return fmt.Errorf("credential check failed: %w", err)
	}
	fmt.Printf("✓ Authenticated as @%s\n", me.Username)

	fmt.Println("Verifying write permissions...")
	if err := twitter.VerifyWritePermissions(ctx, client); err != nil {
		return fmt.Errorf("write permission check failed; ensure the app has 'Read and Write' permissions and regenerate the access tokens: %w", err)
	}
	fmt.Println("✓ Write permissions confirmed")

	fmt.Println("\nTwitter workflow is ready. Try 'mentat chat' and ask to post a tweet.")
	return nil
}
