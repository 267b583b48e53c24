package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rodaine/table"
	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mentathq/mentat/internal/app"
	"github.com/mentathq/mentat/internal/workflow"
)

// WorkflowsOptions contains the options for the workflows command.
type WorkflowsOptions struct {
	JSON bool
}

// NewWorkflowsCommand creates the workflows command.
func NewWorkflowsCommand() *cobra.Command {
	opts := &WorkflowsOptions{}

	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "List available workflows",
		Long: `List all available workflows with their configuration state.

Unconfigured workflows are listed too; run 'mentat setup --workflow <name>'
to configure one.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorkflows(opts)
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "output in JSON format")

	return cmd
}

func runWorkflows(opts *WorkflowsOptions) error {
	s, err := newSession()
	if err != nil {
		return err
	}
	defer s.Close()

	all := app.AllWorkflows(s.deps())
	title := cases.Title(language.English)

	infos := make([]workflow.Info, 0, len(all))
	for _, w := range all {
		infos = append(infos, workflow.Info{
			Name:        w.Name(),
			DisplayName: title.String(w.Name()),
			Description: w.Description(),
			Configured:  w.ValidateEnvironment(),
		})
	}

	if opts.JSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	}

	if IsNoTUI() {
		for _, info := range infos {
			fmt.Printf("%s\t%s\tconfigured=%t\n", info.Name, info.Description, info.Configured)
		}
		return nil
	}

	tbl := table.New("Name", "Description", "Configured")
	for _, info := range infos {
		configured := "no"
		if info.Configured {
			configured = "yes"
		}
		tbl.AddRow(info.DisplayName, info.Description, configured)
	}
	tbl.Print()

	for _, w := range all {
		fmt.Printf("\n%s examples:\n", title.String(w.Name()))
		for _, example := range w.ExampleCommands() {
			fmt.Printf("  - %s\n", example)
		}
	}
	fmt.Println("\nRun 'mentat setup --workflow <name>' to configure a workflow.")

	return nil
}
