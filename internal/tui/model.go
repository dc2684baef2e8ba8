package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"mindease/internal/chat"
	"mindease/internal/history"
	"mindease/internal/transcript"
)

const defaultWidth = 80

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	humanBubble  = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62"))
	aiBubble     = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("236")).Background(lipgloss.Color("189"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	promptMarker = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")).Render("> ")
)

type greetMsg struct {
	msgs []history.Message
	err  error
}

type replyMsg struct {
	turn chat.Turn
	err  error
}

// Model is the terminal chat surface. One Model drives one conversation.
type Model struct {
	ctx  context.Context
	svc  *chat.Service
	conv *chat.Conversation

	greeting string
	input    string
	pending  bool
	status   string
	width    int
}

var _ tea.Model = (*Model)(nil)

func New(ctx context.Context, svc *chat.Service, conv *chat.Conversation) *Model {
	return &Model{ctx: ctx, svc: svc.WithSurface("tui"), conv: conv, width: defaultWidth}
}

func (m *Model) Init() tea.Cmd {
	return func() tea.Msg {
		msgs, err := m.svc.Greet(m.ctx, m.conv)
		return greetMsg{msgs: msgs, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case greetMsg:
		if msg.err != nil {
			m.status = fmt.Sprintf("Could not load the conversation: %v", msg.err)
			return m, nil
		}
		if len(msg.msgs) > 0 && msg.msgs[0].Role == history.RoleAI {
			m.greeting = msg.msgs[0].Text
		}
	case replyMsg:
		m.pending = false
		switch {
		case errors.Is(msg.err, chat.ErrEmptyInput):
			m.status = "Please write a few words first."
		case msg.err != nil:
			m.status = "Sorry, something went wrong. Press enter to try again."
		default:
			m.status = ""
		}
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyEnter:
		if m.pending {
			return m, nil
		}
		text := m.input
		if text == "" {
			text = m.lastFailed()
		}
		m.input = ""
		m.pending = true
		return m, m.submit(text)
	case tea.KeyBackspace:
		if r := []rune(m.input); len(r) > 0 {
			m.input = string(r[:len(r)-1])
		}
	case tea.KeySpace:
		m.input += " "
	case tea.KeyRunes:
		m.input += string(msg.Runes)
	}
	return m, nil
}

// lastFailed returns the human message left unanswered by a failed turn.
func (m *Model) lastFailed() string {
	if m.conv.LastError() == "" {
		return ""
	}
	tr := m.conv.Transcript()
	if n := len(tr); n > 0 && tr[n-1].Origin == transcript.Human {
		return tr[n-1].Text
	}
	return ""
}

func (m *Model) submit(text string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.svc.Submit(m.ctx, m.conv, text)
		return replyMsg{turn: turn, err: err}
	}
}

func (m *Model) View() string {
	var b strings.Builder
	persona := m.svc.Persona()
	b.WriteString(titleStyle.Render(fallback(persona.Title, "MindEase")))
	b.WriteString("\n")
	if persona.Tagline != "" {
		b.WriteString(mutedStyle.Render(persona.Tagline))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if m.greeting != "" {
		b.WriteString(m.bubble(transcript.AIMessage(m.greeting)))
		b.WriteString("\n")
	}
	for _, msg := range m.conv.Transcript() {
		b.WriteString(m.bubble(msg))
		b.WriteString("\n")
	}

	if m.pending {
		b.WriteString(mutedStyle.Render("MindEase is thinking..."))
		b.WriteString("\n")
	}
	if m.status != "" {
		b.WriteString(errorStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(promptMarker)
	if m.input == "" && persona.Placeholder != "" {
		b.WriteString(mutedStyle.Render(persona.Placeholder))
	} else {
		b.WriteString(m.input)
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(fmt.Sprintf("Tokens used: %d  •  enter to send, esc to quit", m.conv.Usage().TotalTokens)))
	return b.String()
}

// bubble renders human messages on the right and model replies on the left.
func (m *Model) bubble(msg transcript.Message) string {
	maxWidth := m.width * 3 / 4
	if msg.Origin == transcript.Human {
		text := humanBubble.MaxWidth(maxWidth).Render(msg.Text)
		return lipgloss.PlaceHorizontal(m.width, lipgloss.Right, text)
	}
	return aiBubble.MaxWidth(maxWidth).Render(msg.Text)
}

func fallback(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
