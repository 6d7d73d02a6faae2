package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/keyspace/metrics"
)

// SnapshotMsg carries a fresh meter snapshot into a running StatsModel.
type SnapshotMsg metrics.Snapshot

// DoneMsg ends a live StatsModel with the run's terminal reason.
type DoneMsg struct {
	State  string
	Reason string
}

// StatsModel is a Bubble Tea model showing run throughput. It renders a
// fixed snapshot, or follows a running engine when fed SnapshotMsg.
type StatsModel struct {
	snapshot metrics.Snapshot
	done     *DoneMsg
	width    int
	height   int
	quitting bool
}

// NewStatsModel creates a new stats model.
func NewStatsModel(s metrics.Snapshot) StatsModel {
	return StatsModel{snapshot: s}
}

// Init implements tea.Model.
func (m StatsModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m StatsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SnapshotMsg:
		m.snapshot = metrics.Snapshot(msg)
		return m, nil

	case DoneMsg:
		m.done = &msg
		return m, tea.Quit

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m StatsModel) View() string {
	if m.quitting {
		return ""
	}

	s := m.snapshot
	var b strings.Builder
	title := "Run Throughput"
	if s.RunID != "" {
		title += " · " + s.RunID
	}
	b.WriteString(TitleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Attempts", s.Attempts, highlightColor),
		renderStatBox("Accepted", s.Accepted, successColor),
		renderStatBox("Rejected", s.Rejected, mutedColor),
		renderStatBox("Transient", s.Transient, warningColor),
		renderStatBox("Gave Up", s.GaveUp, errorColor),
	))
	b.WriteString("\n")

	rows := [][]string{
		{"Rate", fmt.Sprintf("%.1f/s", s.Rate)},
		{"Elapsed", s.Elapsed.Truncate(1e6).String()},
		{"In Flight", fmt.Sprintf("%d (peak %d)", s.InFlight, s.PeakInFlight)},
		{"Retries", fmt.Sprintf("%d", s.Retries)},
		{"Stale Signals", fmt.Sprintf("%d", s.StaleSignals)},
	}
	for _, row := range rows {
		b.WriteString(fmt.Sprintf("%s %s\n", LabelStyle.Render(row[0]+":"), ValueStyle.Render(row[1])))
	}

	if m.done != nil {
		b.WriteString("\n")
		b.WriteString(StateStyle(m.done.State).Render(m.done.Reason))
		return b.String()
	}
	return b.String() + "\n" + HelpStyle.Render("Press q or Ctrl+C to quit")
}

// RunStatsTUI runs the stats TUI over a fixed snapshot.
func RunStatsTUI(data any) error {
	s, ok := data.(metrics.Snapshot)
	if !ok {
		return fmt.Errorf("invalid data type for %s: %T", ViewStatsRun, data)
	}
	p := tea.NewProgram(NewStatsModel(s))
	_, err := p.Run()
	return err
}

// Live is a StatsModel program driven by a running engine.
type Live struct {
	program *tea.Program
	done    chan error
}

// StartLive starts a live stats view. Feed it with Update and end it with
// Finish.
func StartLive(runID, strategy string) *Live {
	l := &Live{
		program: tea.NewProgram(NewStatsModel(metrics.Snapshot{RunID: runID, Strategy: strategy})),
		done:    make(chan error, 1),
	}
	go func() {
		_, err := l.program.Run()
		l.done <- err
	}()
	return l
}

// Update pushes a snapshot to the view.
func (l *Live) Update(s metrics.Snapshot) {
	l.program.Send(SnapshotMsg(s))
}

// Finish renders the final snapshot with the terminal reason and waits for
// the program to exit.
func (l *Live) Finish(s metrics.Snapshot, state, reason string) error {
	l.program.Send(SnapshotMsg(s))
	l.program.Send(DoneMsg{State: state, Reason: reason})
	return <-l.done
}

// RenderStatsStatic renders a snapshot without full TUI.
func RenderStatsStatic(s metrics.Snapshot) string {
	return lipgloss.NewStyle().Padding(1, 2).Render(NewStatsModel(s).View())
}
