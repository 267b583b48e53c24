package cli

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/app"
	"github.com/mentathq/mentat/internal/config"
	"github.com/mentathq/mentat/internal/llm"
	"github.com/mentathq/mentat/internal/logging"

	// Completion providers register themselves at init time.
	_ "github.com/mentathq/mentat/internal/llm/anthropic"
	_ "github.com/mentathq/mentat/internal/llm/openai"
)

// session holds the pieces every command needs: loaded config, logger,
// credential store and the LLM backend.
type session struct {
	cfg     *config.Config
	log     *zap.Logger
	store   *config.EnvFile
	backend *llm.Backend
}

// newSession loads configuration and wires up the shared components.
func newSession() (*session, error) {
	cfg, err := config.LoadWithDefaults()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if Debug {
		cfg.Logging.Debug = true
	}
	if IsNoTUI() {
		cfg.TUI.Enabled = false
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}

	store, err := config.NewEnvFile(cfg.Env.File)
	if err != nil {
		return nil, fmt.Errorf("opening credential store: %w", err)
	}

	backend := llm.NewBackend(store, llm.Options{
		AssistantName: cfg.Assistant.Name,
		Persona:       cfg.Assistant.Persona,
		MaxTokens:     cfg.LLM.MaxTokens,
		Logger:        log,
	})

	return &session{
		cfg:     cfg,
		log:     log,
		store:   store,
		backend: backend,
	}, nil
}

func (s *session) deps() app.Deps {
	return app.Deps{
		Store:       s.store,
		Backend:     s.backend,
		Logger:      s.log,
		Interactive: s.cfg.TUI.Enabled,
	}
}

// Close flushes buffered log entries.
func (s *session) Close() {
	_ = s.log.Sync()
}
