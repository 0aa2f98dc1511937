package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/browser-forge/internal/progress"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")).MarginBottom(1)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#5B8DEF")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	boxStyle     = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	footerStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

type moduleState int

const (
	statePending moduleState = iota
	stateRunning
	stateDone
	stateFailed
)

type moduleRow struct {
	name     string
	phase    string
	state    moduleState
	duration time.Duration
	err      string
}

// EventMsg carries one progress event into the program.
type EventMsg progress.Event

// DoneMsg ends the program once the pipeline returns.
type DoneMsg struct{ Err error }

// Model renders a live view of a pipeline run.
type Model struct {
	title     string
	rows      []moduleRow
	index     map[string]int
	artifacts []string
	spinner   spinner.Model
	elapsed   time.Duration
	done      bool
	err       error
	cancel    func()
}

// NewModel builds an empty view. cancel is invoked when the user quits early.
func NewModel(title string, cancel func()) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = runningStyle
	return Model{title: title, index: map[string]int{}, spinner: s, cancel: cancel}
}

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil && !m.done {
				m.cancel()
			}
			return m, tea.Quit
		}
	case EventMsg:
		m.apply(progress.Event(msg))
		return m, nil
	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) apply(event progress.Event) {
	switch event.Type {
	case progress.TypePipelineStart:
		m.rows = make([]moduleRow, len(event.Modules))
		m.index = make(map[string]int, len(event.Modules))
		for i, name := range event.Modules {
			m.rows[i] = moduleRow{name: name}
			m.index[name] = i
		}
	case progress.TypeModuleStart:
		if row := m.row(event.Module); row != nil {
			row.state = stateRunning
			row.phase = event.Phase
		}
	case progress.TypeModuleComplete:
		if row := m.row(event.Module); row != nil {
			row.state = stateDone
			row.duration = event.Elapsed()
		}
	case progress.TypeModuleError:
		if row := m.row(event.Module); row != nil {
			row.state = stateFailed
			row.err = event.Error
		}
	case progress.TypeArtifactCreated:
		m.artifacts = append(m.artifacts, fmt.Sprintf("%s -> %s", event.Artifact, event.Path))
	case progress.TypePipelineComplete:
		m.elapsed = event.Elapsed()
	}
}

func (m *Model) row(name string) *moduleRow {
	i, ok := m.index[name]
	if !ok {
		return nil
	}
	return &m.rows[i]
}

// Err returns the pipeline error delivered with DoneMsg.
func (m Model) Err() error { return m.err }

// Completed counts modules that finished successfully.
func (m Model) Completed() int {
	n := 0
	for _, row := range m.rows {
		if row.state == stateDone {
			n++
		}
	}
	return n
}

func (m Model) View() string {
	var lines []string
	for _, row := range m.rows {
		lines = append(lines, m.renderRow(row))
	}
	if len(lines) == 0 {
		lines = append(lines, pendingStyle.Render("resolving modules..."))
	}
	sections := []string{titleStyle.Render("⬡ " + m.title), boxStyle.Render(strings.Join(lines, "\n"))}
	if n := len(m.artifacts); n > 0 {
		tail := m.artifacts
		if n > 5 {
			tail = tail[n-5:]
		}
		sections = append(sections, detailStyle.Render(strings.Join(tail, "\n")))
	}
	sections = append(sections, footerStyle.Render(m.status()))
	return strings.Join(sections, "\n") + "\n"
}

func (m Model) renderRow(row moduleRow) string {
	label := row.name
	if row.phase != "" {
		label = fmt.Sprintf("%s [%s]", row.name, row.phase)
	}
	switch row.state {
	case stateRunning:
		return fmt.Sprintf("%s %s", m.spinner.View(), runningStyle.Render(label))
	case stateDone:
		return fmt.Sprintf("%s %s %s", doneStyle.Render("✓"), label, detailStyle.Render(row.duration.Round(time.Millisecond).String()))
	case stateFailed:
		return fmt.Sprintf("%s %s %s", failedStyle.Render("✗"), label, failedStyle.Render(row.err))
	default:
		return fmt.Sprintf("%s %s", pendingStyle.Render("·"), pendingStyle.Render(label))
	}
}

func (m Model) status() string {
	switch {
	case m.done && m.err != nil:
		return fmt.Sprintf("failed: %v", m.err)
	case m.done:
		return fmt.Sprintf("%d/%d modules complete in %s", m.Completed(), len(m.rows), m.elapsed.Round(time.Millisecond))
	default:
		return fmt.Sprintf("%d/%d modules complete · q to cancel", m.Completed(), len(m.rows))
	}
}
