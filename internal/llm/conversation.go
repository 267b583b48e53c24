package llm

import (
	"fmt"
	"os"
	"runtime"
	"sort"
	"strings"
)

// Conversation is the InConversation half of the backend's tagged state.
// A nil *Conversation means Idle; invalid combinations (history without a
// conversation) are unrepresentable.
type Conversation struct {
	// ID identifies this conversation across exports and logs.
	ID string `json:"id"`

	// Task names what the conversation is about ("troubleshooting",
	// "twitter_setup", ...). It selects the system prompt template.
	Task string `json:"task"`

	// Context is the merged caller context and system snapshot injected
	// into the system prompt.
	Context map[string]string `json:"context"`

	// History is the ordered sequence of {role, content} turns. It only
	// accumulates while the conversation is live; it is never truncated by
	// a pause.
	History []Message `json:"history"`

	// PausedAt records the history length at the last pause, or -1 when the
	// conversation has never been paused.
	PausedAt int `json:"paused_at"`
}

// LastTurn returns the most recent history entry, or ok=false for a fresh
// conversation.
func (c *Conversation) LastTurn() (Message, bool) {
	if len(c.History) == 0 {
		return Message{}, false
	}
	return c.History[len(c.History)-1], true
}

// systemSnapshot captures the environment the assistant is running in. It is
// recomputed on every StartConversation so the context never goes stale.
func systemSnapshot(persona string, workflows []string) map[string]string {
	wd, _ := os.Getwd()

	term := os.Getenv("TERM")
	if term == "" {
		term = "unknown"
	}

	return map[string]string{
		"os":                  runtime.GOOS,
		"terminal":            term,
		"project_root":        wd,
		"workflows_available": strings.Join(workflows, ", "),
		"personality":         persona,
	}
}

// formatContext renders a context map as deterministic "key: value" lines
// for prompt injection.
func formatContext(ctx map[string]string) string {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "%s: %s\n", k, ctx[k])
	}
	return b.String()
}
