// Package export renders conversation transcripts in various formats.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mentathq/mentat/internal/llm"
)

// Format represents the export format.
type Format string

const (
	// FormatMarkdown exports as Markdown.
	FormatMarkdown Format = "md"
	// FormatYAML exports as YAML.
	FormatYAML Format = "yaml"
	// FormatJSON exports as JSON.
	FormatJSON Format = "json"
)

// Transcript is the exportable view of one conversation.
type Transcript struct {
	ID         string            `json:"id" yaml:"id"`
	Task       string            `json:"task" yaml:"task"`
	Context    map[string]string `json:"context" yaml:"context"`
	Messages   []llm.Message     `json:"messages" yaml:"messages"`
	ExportedAt time.Time         `json:"exported_at" yaml:"exported_at"`
}

// FromConversation builds a transcript from the active conversation.
func FromConversation(conv *llm.Conversation, now time.Time) (*Transcript, error) {
	if conv == nil {
		return nil, fmt.Errorf("no active conversation to export")
	}
	return &Transcript{
		ID:         conv.ID,
		Task:       conv.Task,
		Context:    conv.Context,
		Messages:   conv.History,
		ExportedAt: now,
	}, nil
}

// Exporter renders transcripts.
type Exporter struct {
	format   Format
	outPath  string
	template *template.Template
}

// Options contains export options.
type Options struct {
	Format Format

	// Out is the output file path; empty or "-" means render only.
	Out string
}

// NewExporter creates a new exporter.
func NewExporter(opts Options) (*Exporter, error) {
	e := &Exporter{
		format:  opts.Format,
		outPath: opts.Out,
	}

	switch opts.Format {
	case FormatMarkdown:
		tmpl, err := template.New("export").Parse(markdownTemplate)
		if err != nil {
			return nil, err
		}
		e.template = tmpl
	case FormatYAML, FormatJSON:
	default:
		return nil, fmt.Errorf("unsupported format: %s", opts.Format)
	}

	return e, nil
}

// Export renders a transcript, writing it to the output file when one is
// configured.
func (e *Exporter) Export(t *Transcript) (string, error) {
	var output string

	switch e.format {
	case FormatMarkdown:
		var buf bytes.Buffer
		if err := e.template.Execute(&buf, e.templateData(t)); err != nil {
			return "", fmt.Errorf("executing template: %w", err)
		}
		output = buf.String()

	case FormatYAML:
		data, err := yaml.Marshal(t)
		if err != nil {
			return "", fmt.Errorf("encoding yaml: %w", err)
		}
		output = string(data)

	case FormatJSON:
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return "", fmt.Errorf("encoding json: %w", err)
		}
		output = string(data) + "\n"
	}

	if e.outPath != "" && e.outPath != "-" {
		if err := os.WriteFile(e.outPath, []byte(output), 0644); err != nil {
			return "", fmt.Errorf("writing output file: %w", err)
		}
	}

	return output, nil
}

// templateData flattens a transcript for the Markdown template, with the
// context rendered as sorted key/value pairs.
func (e *Exporter) templateData(t *Transcript) map[string]interface{} {
	keys := make([]string, 0, len(t.Context))
	for k := range t.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	contextRows := make([]map[string]string, 0, len(keys))
	for _, k := range keys {
		contextRows = append(contextRows, map[string]string{"key": k, "value": t.Context[k]})
	}

	return map[string]interface{}{
		"ID":         t.ID,
		"Task":       t.Task,
		"Context":    contextRows,
		"Messages":   t.Messages,
		"ExportedAt": t.ExportedAt.Format(time.RFC3339),
	}
}

// markdownTemplate is the default Markdown transcript layout.
const markdownTemplate = `# Conversation {{.ID}}

**Task:** {{.Task}}
**Exported:** {{.ExportedAt}}

{{if .Context}}## Context

{{range .Context}}- **{{.key}}:** {{.value}}
{{end}}
{{end}}## Transcript

{{range .Messages}}### {{.Role}}

{{.Content}}

{{end}}`
