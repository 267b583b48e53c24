// Package app wires the parser, workflow registry and LLM backend into the
// conversational dispatcher behind the chat REPL.
package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"go.uber.org/zap"

	errs "github.com/mentathq/mentat/internal/errors"
	"github.com/mentathq/mentat/internal/llm"
	"github.com/mentathq/mentat/internal/parser"
	"github.com/mentathq/mentat/internal/workflow"
)

// Dispatcher routes free-text commands: literal commands first, then parse
// and execute through the registry. It is the single user-facing error
// boundary; no workflow or backend failure escapes it as a raw error.
type Dispatcher struct {
	registry *workflow.Registry
	parser   *parser.Parser
	backend  *llm.Backend
	log      *zap.Logger

	in  io.Reader
	out io.Writer

	// confirm asks a yes/no question; replaced in tests.
	confirm func(title string) bool

	// session runs the interactive troubleshooting loop; replaced in tests
	// and by the TUI runner.
	session func(ctx context.Context) error
}

// Options configures a Dispatcher.
type Options struct {
	Logger *zap.Logger

	// In and Out are the REPL streams. Default os.Stdin / os.Stdout.
	In  io.Reader
	Out io.Writer

	// Session overrides the default line-based troubleshooting loop.
	Session func(ctx context.Context) error
}

// NewDispatcher creates a dispatcher over the given registry, parser and
// backend.
func NewDispatcher(reg *workflow.Registry, p *parser.Parser, backend *llm.Backend, opts Options) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.In == nil {
		opts.In = os.Stdin
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	d := &Dispatcher{
		registry: reg,
		parser:   p,
		backend:  backend,
		log:      opts.Logger,
		in:       opts.In,
		out:      opts.Out,
	}
	d.confirm = d.huhConfirm
	d.session = opts.Session
	if d.session == nil {
		d.session = d.troubleshootLoop
	}
	return d
}

// Execute handles one user command and returns the user-facing response.
// Literals "help" and "troubleshoot" bypass the parser.
func (d *Dispatcher) Execute(ctx context.Context, command string) (string, error) {
	trimmed := strings.TrimSpace(command)

	switch strings.ToLower(trimmed) {
	case "help":
		return d.helpText(), nil
	case "troubleshoot":
		return d.startTroubleshooting(ctx, "")
	}

	if d.registry.Len() == 0 {
		return fmt.Sprintf("%s: I don't see any configured workflows. Run 'mentat setup' to set one up.",
			d.backend.AssistantName()), nil
	}

	res, err := d.parser.Parse(trimmed)
	if err != nil {
		d.log.Debug("parse failed", zap.String("input", trimmed), zap.Error(err))
		return fmt.Sprintf("Error: %s\n\nHint:\n%s", err, d.parser.CommandHelp()), nil
	}

	d.log.Debug("dispatching",
		zap.String("workflow", res.Workflow),
		zap.String("command", res.Command))

	result, err := d.registry.Execute(ctx, res.Workflow, res.Command, res.Params)
	if err == nil {
		return result, nil
	}

	switch {
	case errs.IsWorkflowNotFound(err):
		return fmt.Sprintf("Workflow %q not found or not properly configured.\n\nHint:\n%s",
			res.Workflow, d.parser.CommandHelp()), nil

	case errs.IsEnvironmentNotConfigured(err):
		return fmt.Sprintf("Configuration error: %s\nPlease ensure all required credentials are set; 'mentat setup --workflow %s' can walk you through it.",
			err, res.Workflow), nil

	default:
		return d.offerTroubleshooting(ctx, err)
	}
}

// offerTroubleshooting reports a failure and optionally opens an interactive
// troubleshooting session.
func (d *Dispatcher) offerTroubleshooting(ctx context.Context, cause error) (string, error) {
	d.log.Warn("workflow execution failed", zap.Error(cause))

	name := d.backend.AssistantName()
	if !d.confirm(fmt.Sprintf("%s: I encountered an issue: %s\nWould you like help troubleshooting?", name, cause)) {
		return fmt.Sprintf("%s: I encountered an issue: %s\nLet me know if you need help later - just type 'troubleshoot'.",
			name, cause), nil
	}

	return d.startTroubleshooting(ctx, cause.Error())
}

// startTroubleshooting seeds a troubleshooting conversation and runs the
// interactive session.
func (d *Dispatcher) startTroubleshooting(ctx context.Context, errorContext string) (string, error) {
	if !d.backend.IsConfigured() {
		return "Sorry, I need LLM configuration to help with troubleshooting. Run 'mentat setup' first.", nil
	}

	extra := map[string]string{
		"workflows_loaded": fmt.Sprintf("%t", d.registry.Len() > 0),
	}
	if errorContext != "" {
		extra["error"] = errorContext
	}
	d.backend.StartConversation("troubleshooting", extra)

	if err := d.session(ctx); err != nil {
		return "", err
	}

	// Annotate the conversation so a later resume can pick up where the
	// session ended.
	d.backend.PauseConversation()
	return fmt.Sprintf("%s: Alright, let me know if you need anything else!", d.backend.AssistantName()), nil
}

// troubleshootLoop is the plain line-based troubleshooting session used when
// no TUI session is wired in. The user leaves with exit/quit/done.
func (d *Dispatcher) troubleshootLoop(ctx context.Context) error {
	name := d.backend.AssistantName()
	fmt.Fprintf(d.out, "\n%s: I'll help you troubleshoot. What seems to be the problem?\n", name)

	scanner := bufio.NewScanner(d.in)
	for {
		fmt.Fprint(d.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}

		input := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(input) {
		case "":
			continue
		case "exit", "quit", "done":
			return nil
		}

		response, err := d.backend.Completion(ctx, input)
		if err != nil {
			fmt.Fprintln(d.out, "I'm having trouble generating a response. Please try rephrasing or type 'exit' to quit.")
			continue
		}
		fmt.Fprintf(d.out, "\n%s: %s\n", name, response)

		fmt.Fprint(d.out, "\nDid that solve your issue? (y/N/exit)\n> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		switch strings.ToLower(strings.TrimSpace(scanner.Text())) {
		case "y", "yes":
			fmt.Fprintf(d.out, "%s: Glad I could help!\n", name)
			return nil
		case "exit", "quit", "done":
			return nil
		}
	}
}

// helpText lists literal commands, registered workflows and their example
// commands.
func (d *Dispatcher) helpText() string {
	var b strings.Builder
	b.WriteString("Available Commands:\n")
	b.WriteString("- help: Show this help message\n")
	b.WriteString("- troubleshoot: Start interactive troubleshooting\n")
	b.WriteString("- exit: Exit the application\n")

	infos := d.registry.List()
	if len(infos) == 0 {
		return b.String()
	}

	b.WriteString("\nAvailable Workflows:\n")
	for _, info := range infos {
		fmt.Fprintf(&b, "- %s: %s\n", info.Name, info.Description)
	}

	b.WriteString("\nExample Commands:\n")
	for _, info := range infos {
		w, err := d.registry.Get(info.Name)
		if err != nil {
			continue
		}
		for _, example := range w.ExampleCommands() {
			fmt.Fprintf(&b, "- %s\n", example)
		}
	}
	return b.String()
}

// huhConfirm renders a yes/no prompt.
func (d *Dispatcher) huhConfirm(title string) bool {
	confirmed := false
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(title).
				Value(&confirmed),
		),
	)
	if err := form.Run(); err != nil {
		return false
	}
	return confirmed
}
