package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentathq/mentat/internal/cli"
)

// Version is set at build time using ldflags
var Version = "dev"

// Commit is set at build time using ldflags
var Commit = "unknown"

// Date is set at build time using ldflags
var Date = "unknown"

func main() {
	rootCmd := &cobra.Command{
		Use:   "mentat",
		Short: "Conversational assistant for automating workflows",
		Long: `mentat is a conversational command-line assistant. Its resident persona,
Thufir, turns natural-language commands like "Post a tweet saying 'Hello'"
into workflow actions. Running mentat without a subcommand starts a chat
session.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cli.RunChat(cmd.Context())
		},
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true

	// Add subcommands
	rootCmd.AddCommand(cli.NewChatCommand())
	rootCmd.AddCommand(cli.NewSetupCommand())
	rootCmd.AddCommand(cli.NewWorkflowsCommand())
	rootCmd.AddCommand(cli.NewExportCommand())
	rootCmd.AddCommand(cli.NewVersionCommand(Version, Commit, Date))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
