package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/mentathq/mentat/internal/config"
	"github.com/mentathq/mentat/internal/export"
	"github.com/mentathq/mentat/internal/llm"
)

// ExportOptions contains the options for the export command.
type ExportOptions struct {
	Format string
	Out    string
}

// NewExportCommand creates the export command.
func NewExportCommand() *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the last conversation transcript",
		Long: `Export a conversation transcript as Markdown, YAML or JSON.

Inside 'mentat chat', the 'export' literal renders the live conversation.
Outside a session, this command reads the snapshot of the last
conversation, saved when a chat session ends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts)
		},
	}

	cmd.Flags().StringVar(&opts.Format, "format", "md", "export format: md, yaml or json")
	cmd.Flags().StringVar(&opts.Out, "out", "", "output file path ('-' or empty prints to stdout)")

	return cmd
}

func runExport(opts *ExportOptions) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	conv := s.backend.Conversation()
	if conv == nil {
		conv, err = export.LoadConversation(conversationPath(s.cfg))
		if err != nil {
			return err
		}
	}

	output, err := writeTranscript(conv, export.Format(opts.Format), opts.Out)
	if err != nil {
		return err
	}

	if opts.Out == "" || opts.Out == "-" {
		fmt.Print(output)
		return nil
	}
	fmt.Printf("Exported transcript to %s\n", opts.Out)
	return nil
}

// conversationPath is where chat snapshots the conversation on exit, next to
// the credential store.
func conversationPath(cfg *config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Env.File), "last-conversation.json")
}

// writeTranscript renders the conversation, writing it to the given path
// when one is set.
func writeTranscript(conv *llm.Conversation, format export.Format, out string) (string, error) {
	transcript, err := export.FromConversation(conv, time.Now())
	if err != nil {
		return "", err
	}

	exporter, err := export.NewExporter(export.Options{Format: format, Out: out})
	if err != nil {
		return "", err
	}
	return exporter.Export(transcript)
}
