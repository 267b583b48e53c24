package export

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mentathq/mentat/internal/llm"
)

func TestSaveAndLoadConversation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "last-conversation.json")
	conv := &llm.Conversation{
		ID:      "abc",
		Task:    "troubleshooting",
		Context: map[string]string{"error": "API down"},
		History: []llm.Message{
			{Role: llm.RoleUser, Content: "my tweets fail"},
			{Role: llm.RoleAssistant, Content: "regenerate your tokens"},
		},
		PausedAt: 2,
	}

	require.NoError(t, SaveConversation(path, conv))

	loaded, err := LoadConversation(path)
	require.NoError(t, err)
	assert.Equal(t, conv.ID, loaded.ID)
	assert.Equal(t, conv.Task, loaded.Task)
	assert.Equal(t, conv.Context, loaded.Context)
	assert.Equal(t, conv.History, loaded.History)
	assert.Equal(t, 2, loaded.PausedAt)
}

func TestSaveConversation_Nil(t *testing.T) {
	err := SaveConversation(filepath.Join(t.TempDir(), "c.json"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no active conversation")
}

func TestLoadConversation_Missing(t *testing.T) {
	_, err := LoadConversation(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no saved conversation")
}
