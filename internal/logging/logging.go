// Package logging constructs the shared zap logger.
//
// Interactive output goes through lipgloss-styled prints; the zap logger is
// the diagnostic side channel (discovery results, dispatch decisions,
// provider round-trips) and stays quiet unless debug is enabled.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mentathq/mentat/internal/config"
)

// New builds a logger from the logging config. With an empty file path the
// logger writes to stderr so it never interleaves with conversational
// output on stdout.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	if cfg.File != "" {
		zc.OutputPaths = []string{cfg.File}
		zc.ErrorOutputPaths = []string{cfg.File}
	}

	if cfg.Debug {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	} else {
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// NewNop returns a logger that discards everything. Used in tests and as a
// safe default before the real logger is built.
func NewNop() *zap.Logger {
	return zap.NewNop()
}
