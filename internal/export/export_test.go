package export

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/mentathq/mentat/internal/llm"
)

func sampleTranscript() *Transcript {
	return &Transcript{
		ID:   "11111111-2222-3333-4444-555555555555",
		Task: "troubleshooting",
		Context: map[string]string{
			"os":    "linux",
			"error": "API down",
		},
		Messages: []llm.Message{
			{Role: llm.RoleUser, Content: "my tweets fail"},
			{Role: llm.RoleAssistant, Content: "Check your OAuth permissions."},
		},
		ExportedAt: time.Date(2026, 8, 23, 10, 0, 0, 0, time.UTC),
	}
}

func TestFromConversation(t *testing.T) {
	now := time.Now()
	conv := &llm.Conversation{
		ID:      "abc",
		Task:    "chat",
		History: []llm.Message{{Role: llm.RoleUser, Content: "hi"}},
	}

	tr, err := FromConversation(conv, now)
	require.NoError(t, err)
	assert.Equal(t, "abc", tr.ID)
	assert.Equal(t, "chat", tr.Task)
	assert.Len(t, tr.Messages, 1)
	assert.Equal(t, now, tr.ExportedAt)
}

func TestFromConversation_Nil(t *testing.T) {
	_, err := FromConversation(nil, time.Now())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active conversation")
}

func TestExport_Markdown(t *testing.T) {
	e, err := NewExporter(Options{Format: FormatMarkdown})
	require.NoError(t, err)

	out, err := e.Export(sampleTranscript())
	require.NoError(t, err)

	assert.Contains(t, out, "# Conversation 11111111-2222-3333-4444-555555555555")
	assert.Contains(t, out, "**Task:** troubleshooting")
	assert.Contains(t, out, "- **error:** API down")
	assert.Contains(t, out, "### user")
	assert.Contains(t, out, "my tweets fail")
	assert.Contains(t, out, "### assistant")
	assert.Contains(t, out, "Check your OAuth permissions.")
}

func TestExport_YAML_RoundTrip(t *testing.T) {
	e, err := NewExporter(Options{Format: FormatYAML})
	require.NoError(t, err)

	out, err := e.Export(sampleTranscript())
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "troubleshooting", decoded.Task)
	require.Len(t, decoded.Messages, 2)
	assert.Equal(t, llm.RoleAssistant, decoded.Messages[1].Role)
}

func TestExport_JSON(t *testing.T) {
	e, err := NewExporter(Options{Format: FormatJSON})
	require.NoError(t, err)

	out, err := e.Export(sampleTranscript())
	require.NoError(t, err)

	var decoded Transcript
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, "11111111-2222-3333-4444-555555555555", decoded.ID)
	assert.Equal(t, "API down", decoded.Context["error"])
}

func TestExport_WritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcript.md")
	e, err := NewExporter(Options{Format: FormatMarkdown, Out: path})
	require.NoError(t, err)

	out, err := e.Export(sampleTranscript())
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))
}

func TestExport_DashMeansNoFile(t *testing.T) {
	e, err := NewExporter(Options{Format: FormatJSON, Out: "-"})
	require.NoError(t, err)

	_, err = e.Export(sampleTranscript())
	require.NoError(t, err)
}

func TestNewExporter_UnsupportedFormat(t *testing.T) {
	_, err := NewExporter(Options{Format: "xml"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}
