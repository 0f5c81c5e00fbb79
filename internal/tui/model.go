// Package tui provides the Bubble Tea terminal UI for pathstalk,
// rendering the two progress streams and a scrolling pane of
// discoveries while a scan runs.
package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pathstalk/pathstalk/internal/types"
)

// maxPaneLines bounds the discovery pane.
const maxPaneLines = 12

// counter mirrors one progress stream as seen on the wire.
type counter struct {
	pos      int
	size     int
	finished bool
}

func (c counter) percent() float64 {
	if c.size <= 0 {
		if c.finished {
			return 1
		}
		return 0
	}
	p := float64(c.pos) / float64(c.size)
	if p > 1 {
		p = 1
	}
	return p
}

// Model is the Bubble Tea model for a scan.
type Model struct {
	target   string
	messages <-chan types.Message
	run      func() error

	spinner    spinner.Model
	currentBar progress.Model
	totalBar   progress.Model

	current counter
	total   counter
	status  string
	pane    []string

	streamClosed bool
	done         bool
	quitting     bool
	err          error
	width        int
}

// NewModel creates a TUI model wired to the given scan. run is
// executed once as a background command; messages is the engine's
// stream.
func NewModel(target string, messages <-chan types.Message, run func() error) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		target:     target,
		messages:   messages,
		run:        run,
		spinner:    spin,
		currentBar: progress.New(progress.WithDefaultGradient()),
		totalBar:   progress.New(progress.WithDefaultGradient()),
	}
}

// Init starts the spinner, the scan, and the stream listener.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startScan(), waitForMessage(m.messages))
}

func (m Model) startScan() tea.Cmd {
	return func() tea.Msg {
		return ScanDoneMsg{Err: m.run()}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		barWidth := msg.Width - 12
		if barWidth > 10 {
			m.currentBar.Width = barWidth
			m.totalBar.Width = barWidth
		}

	case StreamMsg:
		m.apply(msg.Msg)
		return m, waitForMessage(m.messages)

	case StreamClosedMsg:
		m.streamClosed = true
		if m.done {
			return m, tea.Quit
		}

	case ScanDoneMsg:
		m.done = true
		m.err = msg.Err
		if m.streamClosed {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// apply folds one engine message into the model state.
func (m *Model) apply(msg types.Message) {
	switch msg := msg.(type) {
	case types.ProgressMessage:
		c := &m.total
		if msg.Stream == types.StreamCurrent {
			c = &m.current
		}
		switch msg.Change.Kind {
		case types.ChangeSetSize:
			c.size = msg.Change.Size
		case types.ChangeStart:
			c.size = msg.Change.Size
			c.pos = 0
		case types.ChangeAdvance:
			c.pos++
		case types.ChangeSetMessage:
			m.status = msg.Change.Text
		case types.ChangePrint:
			m.pushPane(discoverStyle.Render(msg.Change.Text))
		case types.ChangeFinish:
			c.finished = true
		}
	case types.LogMessage:
		if msg.Level != types.LevelInfo {
			m.pushPane(logStyle.Render(fmt.Sprintf("[%s] %s", msg.Level, msg.Text)))
		}
	}
}

func (m *Model) pushPane(line string) {
	m.pane = append(m.pane, line)
	if len(m.pane) > maxPaneLines {
		m.pane = m.pane[len(m.pane)-maxPaneLines:]
	}
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.quitting {
		return dimStyle.Render("Scan aborted.") + "\n"
	}
	if m.done && m.streamClosed {
		return m.renderSummary()
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("pathstalk") + dimStyle.Render("  "+m.target) + "\n\n")

	for _, line := range m.pane {
		b.WriteString(line + "\n")
	}
	if len(m.pane) > 0 {
		b.WriteString("\n")
	}

	b.WriteString(labelStyle.Render("pass ") + m.currentBar.ViewAs(m.current.percent()) + "\n")
	b.WriteString(labelStyle.Render("total") + " " + m.totalBar.ViewAs(m.total.percent()) + "\n")
	b.WriteString(fmt.Sprintf("%s %d/%d  %s\n",
		m.spinner.View(), m.total.pos, m.total.size, dimStyle.Render(m.status)))
	b.WriteString(dimStyle.Render("q to quit") + "\n")
	return b.String()
}

func (m Model) renderSummary() string {
	var b strings.Builder
	if m.err != nil {
		b.WriteString(errorStyle.Render("Scan failed: "+m.err.Error()) + "\n")
		return b.String()
	}
	b.WriteString(successStyle.Render("Scan complete.") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("%d probes issued", m.total.pos)) + "\n")
	for _, line := range m.pane {
		b.WriteString(line + "\n")
	}
	return b.String()
}

// Err returns the engine error, if any, for the caller's exit code.
func (m Model) Err() error { return m.err }
