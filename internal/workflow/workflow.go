// Package workflow defines the pluggable workflow contract and the registry
// that dispatch routes through.
package workflow

import "context"

// Workflow is a pluggable automation unit. A workflow declares what it can
// do, whether its environment is usable right now, and executes parsed
// commands.
//
// Workflows are registered once at startup; there is no runtime plugin
// loading.
type Workflow interface {
	// Name returns the unique registry key ("twitter").
	Name() string

	// Description returns a one-line summary for listings.
	Description() string

	// Commands maps each supported command name to a short description.
	Commands() map[string]string

	// ExampleCommands returns example phrasings shown in help output.
	ExampleCommands() []string

	// ValidateEnvironment reports whether the workflow's required
	// configuration is currently present. It must be cheap; it is
	// re-evaluated on every dispatch.
	ValidateEnvironment() bool

	// Execute runs one parsed command with its extracted parameters and
	// returns a user-facing result message.
	Execute(ctx context.Context, command string, params map[string]string) (string, error)
}
