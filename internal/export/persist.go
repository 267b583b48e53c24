package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mentathq/mentat/internal/llm"
)

// SaveConversation writes the conversation to path as JSON so a later
// process can export its transcript. Conversations live in memory only;
// this snapshot is what 'mentat export' reads outside a chat session.
func SaveConversation(path string, conv *llm.Conversation) error {
	if conv == nil {
		return fmt.Errorf("no active conversation to save")
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding conversation: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating snapshot directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0600); err != nil {
		return fmt.Errorf("writing conversation snapshot: %w", err)
	}
	return nil
}

// LoadConversation reads a conversation snapshot written by SaveConversation.
func LoadConversation(path string) (*llm.Conversation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no saved conversation to export")
		}
		return nil, fmt.Errorf("reading conversation snapshot: %w", err)
	}

	var conv llm.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("parsing conversation snapshot: %w", err)
	}
	return &conv, nil
}
