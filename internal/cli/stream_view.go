package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/cli/formatter"
	"github.com/alexanderramin/skillcycle/internal/domain"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type fragmentMsg string

type attemptMsg struct {
	endpoint chat.Endpoint
	attempt  int
}

type exchangeDoneMsg struct{}

type streamKeyMap struct {
	Cancel key.Binding
}

func defaultStreamKeys() streamKeyMap {
	return streamKeyMap{
		Cancel: key.NewBinding(key.WithKeys("ctrl+c", "esc"), key.WithHelp("ctrl+c", "cancel")),
	}
}

// streamModel shows a spinner, the active endpoint and the response as it
// streams in. It quits when the exchange finishes or the user cancels.
type streamModel struct {
	title      string
	candidates int
	keys       streamKeyMap
	spinner    spinner.Model
	viewport   viewport.Model

	content   strings.Builder
	endpoint  string
	attempt   int
	restarts  int
	done      bool
	cancelled bool
}

func newStreamModel(title string, candidates int) *streamModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = formatter.StylePurple

	vp := viewport.New(80, 12)
	vp.KeyMap = streamViewportKeyMap()

	return &streamModel{
		title:      title,
		candidates: candidates,
		keys:       defaultStreamKeys(),
		spinner:    sp,
		viewport:   vp,
	}
}

// streamViewportKeyMap limits scrolling to arrow and page keys.
func streamViewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
		Up:       key.NewBinding(key.WithKeys("up")),
		Down:     key.NewBinding(key.WithKeys("down")),
	}
}

func (m *streamModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *streamModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 3)
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Cancel) {
			m.cancelled = true
			return m, tea.Quit
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case attemptMsg:
		if msg.attempt > 1 && m.content.Len() > 0 {
			m.restarts++
			m.content.Reset()
			m.refresh()
		}
		m.endpoint = msg.endpoint.Name
		m.attempt = msg.attempt
		return m, nil

	case fragmentMsg:
		m.content.WriteString(string(msg))
		m.refresh()
		return m, nil

	case exchangeDoneMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *streamModel) refresh() {
	body := m.content.String()
	if m.viewport.Width > 0 {
		body = lipgloss.NewStyle().Width(m.viewport.Width).Render(body)
	}
	m.viewport.SetContent(body)
	m.viewport.GotoBottom()
}

// View renders nothing once finished so the final answer can be printed
// below without the live frame.
func (m *streamModel) View() string {
	if m.done || m.cancelled {
		return ""
	}

	status := m.title
	if m.endpoint != "" {
		status = fmt.Sprintf("%s via %s", m.title, m.endpoint)
		if m.candidates > 1 {
			status += fmt.Sprintf(" (%d/%d)", m.attempt, m.candidates)
		}
	}

	var b strings.Builder
	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(formatter.Bold(status))
	if m.restarts > 0 {
		b.WriteString(formatter.Dim(" · previous stream discarded"))
	}
	b.WriteString("\n\n")
	if m.content.Len() > 0 {
		b.WriteString(m.viewport.View())
		b.WriteString("\n")
	}
	b.WriteString(formatter.Dim(m.keys.Cancel.Help().Key + " " + m.keys.Cancel.Help().Desc + " • ↑/↓ scroll"))
	return b.String()
}

type exchangeOutcome struct {
	conv *domain.Conversation
	err  error
}

// runStreamView runs fn in the background while a streamModel renders its
// progress on out. Cancelling the view cancels the exchange.
func runStreamView(ctx context.Context, out io.Writer, title string, candidates int, fn exchangeFunc, opts ...tea.ProgramOption) (*domain.Conversation, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := newStreamModel(title, candidates)
	opts = append([]tea.ProgramOption{tea.WithOutput(out), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(model, opts...)

	outcome := make(chan exchangeOutcome, 1)
	go func() {
		conv, err := fn(ctx,
			func(f string) { p.Send(fragmentMsg(f)) },
			func(ep chat.Endpoint, n int) { p.Send(attemptMsg{endpoint: ep, attempt: n}) },
		)
		outcome <- exchangeOutcome{conv: conv, err: err}
		p.Send(exchangeDoneMsg{})
	}()

	_, runErr := p.Run()
	if model.cancelled || ctx.Err() != nil {
		cancel()
		<-outcome
		return nil, context.Canceled
	}
	if runErr != nil {
		cancel()
		<-outcome
		return nil, fmt.Errorf("running stream view: %w", runErr)
	}

	res := <-outcome
	return res.conv, res.err
}
