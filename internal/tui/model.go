package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tickerai/internal/domain"
)

// Backend is the TUI-facing subset of the application services.
type Backend interface {
	Answer(ctx context.Context, req domain.QueryRequest) (domain.QueryResponse, error)
	IndexCount(ctx context.Context) (int, error)
	Refresh(ctx context.Context) (int, error)
}

type answerMsg struct {
	question string
	resp     domain.QueryResponse
}

type statsMsg struct{ chunks int }

type refreshMsg struct{ chunks int }

type errMsg struct{ err error }

// Model is the Bubble Tea model for the interactive session.
type Model struct {
	backend    Backend
	input      textinput.Model
	viewport   viewport.Model
	transcript []string
	status     string
	busy       bool
	ready      bool
}

// New creates the interactive model. Questions are entered as
// "TICKER: question"; stats, refresh and quit are commands.
func New(backend Backend) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "AAPL: what was the latest revenue?  (stats / refresh / quit)"
	ti.Focus()
	ti.CharLimit = 0
	vp := viewport.New(0, 0)
	return Model{
		backend:  backend,
		input:    ti,
		viewport: vp,
		status:   "Ready. Ask about a ticker.",
	}
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := transcriptBoxStyle.GetFrameSize()
		_, qh := queryBoxStyle.GetFrameSize()
		reserved := 1 + 1 + qh + 1 // header, status, input frame, spacer
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderTranscript())
		return m, nil

	case answerMsg:
		m.busy = false
		m.status = fmt.Sprintf("Answered via %s/%s in %s", msg.resp.Provider, msg.resp.Model, msg.resp.Latency.Round(10*time.Millisecond))
		entry := questionStyle.Render(msg.question) + "\n" + msg.resp.Answer
		if len(msg.resp.Sources) > 0 {
			entry += "\n" + sourceStyle.Render("Sources: "+strings.Join(msg.resp.Sources, ", "))
		} else {
			entry += "\n" + sourceStyle.Render("Sources: none (no documents for this ticker)")
		}
		m.transcript = append(m.transcript, entry)
		m.viewport.SetContent(m.renderTranscript())
		m.viewport.GotoBottom()
		return m, nil

	case statsMsg:
		m.busy = false
		m.status = fmt.Sprintf("Index holds %d chunks", msg.chunks)
		return m, nil

	case refreshMsg:
		m.busy = false
		m.status = fmt.Sprintf("Index rebuilt: %d chunks", msg.chunks)
		return m, nil

	case errMsg:
		m.busy = false
		m.status = "Error: " + msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "enter":
			if m.busy {
				return m, nil
			}
			line := strings.TrimSpace(m.input.Value())
			if line == "" {
				return m, nil
			}
			m.input.SetValue("")
			return m.dispatch(line)
		case "up":
			m.viewport.LineUp(1)
			return m, nil
		case "down":
			m.viewport.LineDown(1)
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) dispatch(line string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(line) {
	case "quit", "exit":
		return m, tea.Quit
	case "stats":
		m.busy = true
		m.status = "Counting index..."
		return m, func() tea.Msg {
			n, err := m.backend.IndexCount(context.Background())
			if err != nil {
				return errMsg{err}
			}
			return statsMsg{chunks: n}
		}
	case "refresh":
		m.busy = true
		m.status = "Rebuilding index..."
		return m, func() tea.Msg {
			n, err := m.backend.Refresh(context.Background())
			if err != nil {
				return errMsg{err}
			}
			return refreshMsg{chunks: n}
		}
	}

	ticker, question, ok := splitQuery(line)
	if !ok {
		m.status = `Use "TICKER: question", e.g. "AAPL: what was the latest revenue?"`
		return m, nil
	}
	m.busy = true
	m.status = fmt.Sprintf("Asking about %s...", ticker)
	return m, func() tea.Msg {
		resp, err := m.backend.Answer(context.Background(), domain.QueryRequest{Ticker: ticker, Question: question})
		if err != nil {
			return errMsg{err}
		}
		return answerMsg{question: line, resp: resp}
	}
}

// splitQuery parses "TICKER: question", accepting a bare space separator as
// well when the first word looks like a ticker.
func splitQuery(line string) (ticker, question string, ok bool) {
	if t, q, found := strings.Cut(line, ":"); found {
		t, q = strings.TrimSpace(t), strings.TrimSpace(q)
		if t != "" && q != "" {
			return strings.ToUpper(t), q, true
		}
		return "", "", false
	}
	t, q, found := strings.Cut(line, " ")
	if !found {
		return "", "", false
	}
	t, q = strings.TrimSpace(t), strings.TrimSpace(q)
	if len(t) >= 1 && len(t) <= 6 && q != "" {
		return strings.ToUpper(t), q, true
	}
	return "", "", false
}

// View renders the TUI layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("TickerAI")
	input := queryBoxStyle.Render(m.input.View())
	status := statusStyle.Render(m.status)
	transcript := transcriptBoxStyle.Render(m.viewport.View())
	return header + "\n" + transcript + "\n" + input + "\n" + status
}

func (m Model) renderTranscript() string {
	if len(m.transcript) == 0 {
		return "No questions yet."
	}
	return strings.Join(m.transcript, "\n\n")
}

var (
	transcriptBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	queryBoxStyle      = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	questionStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	sourceStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
