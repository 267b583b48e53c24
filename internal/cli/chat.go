package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mentathq/mentat/internal/app"
	"github.com/mentathq/mentat/internal/export"
	"github.com/mentathq/mentat/internal/llm"
	"github.com/mentathq/mentat/internal/parser"
	"github.com/mentathq/mentat/internal/tui"
	"github.com/mentathq/mentat/internal/workflow"
)

var assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive session",
		Long: `Start an interactive session with the assistant.

Type natural-language commands like "Post a tweet saying 'Hello'" or
"Check my recent mentions". Type 'help' for the command list, 'resume'
to pick up a paused troubleshooting conversation, 'export' to save its
transcript, and 'exit' to leave.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunChat(cmd.Context())
		},
	}
}

// RunChat runs the chat REPL. It is also the root command's default action.
func RunChat(ctx context.Context) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	reg := workflow.NewRegistry(s.log)
	app.Discover(reg, s.deps())

	opts := app.Options{Logger: s.log}
	if s.cfg.TUI.Enabled {
		opts.Session = func(ctx context.Context) error {
			return tui.RunTroubleshoot(ctx, s.backend)
		}
	}
	dispatcher := app.NewDispatcher(reg, parser.New(), s.backend, opts)

	name := s.backend.AssistantName()
	styled := assistantStyle.Render(name)
	if s.store.Get(llm.KeyBootstrapComplete) != "true" {
		fmt.Println("It looks like this is your first run. Use 'mentat setup' to configure an LLM provider and workflows.")
	}
	fmt.Printf("%s: Greetings! How may I serve you today? (type 'help' for options, 'exit' to leave)\n", styled)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			saveChatTranscript(s)
			fmt.Printf("%s: Farewell!\n", styled)
			return nil
		case "export":
			exportChatTranscript(s)
			continue
		case "resume":
			resumeConversation(ctx, s, styled)
			continue
		}

		response, err := dispatcher.Execute(ctx, line)
		if err != nil {
			s.log.Debug("command failed", zap.Error(err))
			fmt.Printf("Error: %s\n", err)
			continue
		}
		if response != "" {
			fmt.Println(response)
		}
	}

	saveChatTranscript(s)
	return scanner.Err()
}

// saveChatTranscript snapshots the active conversation so 'mentat export'
// can render it from a later process. Best effort; a failed save never
// blocks leaving the session.
func saveChatTranscript(s *session) {
	conv := s.backend.Conversation()
	if conv == nil {
		return
	}
	if err := export.SaveConversation(conversationPath(s.cfg), conv); err != nil {
		s.log.Warn("saving conversation snapshot", zap.Error(err))
	}
}

// resumeConversation recaps the paused conversation through the LLM and
// prints the summary.
func resumeConversation(ctx context.Context, s *session, styled string) {
	response, err := s.backend.ResumeConversation(ctx)
	if err != nil {
		if errors.Is(err, llm.ErrNoConversation) {
			fmt.Println("There is no previous conversation to resume.")
			return
		}
		fmt.Printf("Error: %s\n", err)
		return
	}
	fmt.Printf("%s: %s\n", styled, response)
}

// exportChatTranscript writes the active conversation to a timestamped
// Markdown file in the working directory.
func exportChatTranscript(s *session) {
	path := fmt.Sprintf("mentat-transcript-%s.md", time.Now().Format("20060102-150405"))
	if _, err := writeTranscript(s.backend.Conversation(), export.FormatMarkdown, path); err != nil {
		fmt.Printf("Error: %s\n", err)
		return
	}
	fmt.Printf("Exported transcript to %s\n", path)
}
