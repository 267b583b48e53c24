// Package tui provides Bubble Tea models for terminal UI interactions.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mentathq/mentat/internal/llm"
)

// TroubleshootState represents the current state of the troubleshooting flow.
type TroubleshootState int

const (
	// TroubleshootStateComposing means the user is entering a message.
	TroubleshootStateComposing TroubleshootState = iota
	// TroubleshootStateWaiting means a completion is in flight.
	TroubleshootStateWaiting
	// TroubleshootStateFinished means the session ended.
	TroubleshootStateFinished
)

// turn is one rendered exchange line.
type turn struct {
	speaker string
	text    string
}

// TroubleshootModel is the Bubble Tea model for an interactive
// troubleshooting session over an active backend conversation.
type TroubleshootModel struct {
	ctx     context.Context
	backend *llm.Backend
	state   TroubleshootState

	input      textarea.Model
	transcript []turn

	// askResolution shows the per-turn resolution check after an
	// assistant response.
	askResolution bool

	errorMsg string
	quit     bool

	headerStyle    lipgloss.Style
	assistantStyle lipgloss.Style
	userStyle      lipgloss.Style
	errorStyle     lipgloss.Style
	footerStyle    lipgloss.Style
}

// NewTroubleshootModel creates a troubleshooting session model. The backend
// conversation must already be started.
func NewTroubleshootModel(ctx context.Context, backend *llm.Backend) *TroubleshootModel {
	ti := textarea.New()
	ti.Placeholder = "Describe the problem..."
	ti.SetHeight(3)
	ti.Focus()
	ti.ShowLineNumbers = false

	return &TroubleshootModel{
		ctx:     ctx,
		backend: backend,
		state:   TroubleshootStateComposing,
		input:   ti,

		headerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")).
			Bold(true),
		assistantStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")),
		userStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		errorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true),
		footerStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1),
	}
}

// Init initializes the model.
func (m *TroubleshootModel) Init() tea.Cmd {
	return textarea.Blink
}

// Update advances the model.
func (m *TroubleshootModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case completionMsg:
		if msg.Error != nil {
			m.errorMsg = "I'm having trouble generating a response. Please try rephrasing."
			m.state = TroubleshootStateComposing
			m.input.Focus()
			return m, nil
		}
		m.errorMsg = ""
		m.transcript = append(m.transcript, turn{speaker: m.backend.AssistantName(), text: msg.Response})
		m.askResolution = true
		m.state = TroubleshootStateComposing
		m.input.Focus()
		return m, nil
	}

	if m.state == TroubleshootStateComposing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// handleKey handles key messages.
func (m *TroubleshootModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.state = TroubleshootStateFinished
		m.quit = true
		return m, tea.Quit

	case tea.KeyCtrlS:
		if m.state != TroubleshootStateComposing {
			return m, nil
		}
		text := strings.TrimSpace(m.input.Value())
		if text == "" {
			m.errorMsg = "Please enter a message"
			return m, nil
		}
		switch strings.ToLower(text) {
		case "exit", "quit", "done":
			m.state = TroubleshootStateFinished
			m.quit = true
			return m, tea.Quit
		}

		m.errorMsg = ""
		m.askResolution = false
		m.input.Reset()
		m.input.Blur()
		m.transcript = append(m.transcript, turn{speaker: "you", text: text})
		m.state = TroubleshootStateWaiting
		return m, m.complete(text)
	}

	if m.state == TroubleshootStateComposing {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// complete is a tea.Cmd that performs one completion round-trip.
func (m *TroubleshootModel) complete(prompt string) tea.Cmd {
	return func() tea.Msg {
		response, err := m.backend.Completion(m.ctx, prompt)
		if err != nil {
			return completionMsg{Error: err}
		}
		return completionMsg{Response: response}
	}
}

// View renders the session.
func (m *TroubleshootModel) View() string {
	if m.state == TroubleshootStateFinished {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.headerStyle.Render("🔧 Troubleshooting with " + m.backend.AssistantName()))
	b.WriteString("\n\n")

	for _, t := range m.transcript {
		style := m.userStyle
		if t.speaker != "you" {
			style = m.assistantStyle
		}
		b.WriteString(style.Render(fmt.Sprintf("%s: %s", t.speaker, t.text)))
		b.WriteString("\n")
	}
	if len(m.transcript) > 0 {
		b.WriteString("\n")
	}

	if m.errorMsg != "" {
		b.WriteString(m.errorStyle.Render("⚠️  " + m.errorMsg))
		b.WriteString("\n\n")
	}

	if m.state == TroubleshootStateWaiting {
		b.WriteString(m.assistantStyle.Render("Thinking..."))
		b.WriteString("\n")
	} else {
		if m.askResolution {
			b.WriteString(m.assistantStyle.Render("Did that solve your issue? Type 'done' if it did, or describe what's still wrong."))
			b.WriteString("\n")
		}
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	b.WriteString(m.footerStyle.Render(" [Ctrl+S]: send  [Esc]: end session  (type 'done' when resolved)"))
	return b.String()
}

// Transcript returns the rendered exchanges so far.
func (m *TroubleshootModel) Transcript() []llm.Message {
	msgs := make([]llm.Message, 0, len(m.transcript))
	for _, t := range m.transcript {
		role := llm.RoleAssistant
		if t.speaker == "you" {
			role = llm.RoleUser
		}
		msgs = append(msgs, llm.Message{Role: role, Content: t.text})
	}
	return msgs
}

// RunTroubleshoot runs the troubleshooting session as a full-screen program.
func RunTroubleshoot(ctx context.Context, backend *llm.Backend) error {
	model := NewTroubleshootModel(ctx, backend)
	_, err := tea.NewProgram(model).Run()
	return err
}

// completionMsg is delivered when a completion round-trip finishes.
type completionMsg struct {
	Response string
	Error    error
}
