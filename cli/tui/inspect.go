package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pithecene-io/keyspace/lode"
)

// InspectModel is a Bubble Tea model for a stored run summary.
type InspectModel struct {
	data     any
	width    int
	height   int
	quitting bool
}

// NewInspectModel creates a new inspect model.
func NewInspectModel(data any) InspectModel {
	return InspectModel{data: data}
}

// Init implements tea.Model.
func (m InspectModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
	}

	return m, nil
}

// View implements tea.Model.
func (m InspectModel) View() string {
	if m.quitting {
		return ""
	}
	help := HelpStyle.Render("Press q or Ctrl+C to quit")
	return m.renderInspectRun() + "\n" + help
}

func (m InspectModel) renderInspectRun() string {
	var data *lode.SummaryRecord
	switch v := m.data.(type) {
	case *lode.SummaryRecord:
		data = v
	case lode.SummaryRecord:
		data = &v
	default:
		return "Invalid data type for inspect_run"
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render("Run Summary"))
	b.WriteString("\n\n")

	rows := [][]string{
		{"Run ID", data.RunID},
		{"Strategy", data.Strategy},
		{"Day", data.Day},
		{"State", data.State},
		{"Reason", data.Reason},
		{"Attempts", fmt.Sprintf("%d", data.Attempts)},
		{"Keyspace", fmt.Sprintf("%d", data.KeyspaceSize)},
		{"Concurrency", fmt.Sprintf("%d", data.Concurrency)},
		{"Elapsed", (time.Duration(data.ElapsedMs) * time.Millisecond).String()},
	}
	if data.WinnerSeq != nil {
		rows = append(rows, []string{"Winner Seq", fmt.Sprintf("%d", *data.WinnerSeq)})
	}
	if data.Winner != "" {
		rows = append(rows, []string{"Winner", data.Winner})
	}
	if data.Version != "" {
		rows = append(rows, []string{"Version", data.Version})
	}

	for _, row := range rows {
		label := LabelStyle.Render(row[0] + ":")
		value := row[1]
		if row[0] == "State" {
			value = StateStyle(data.State).Render(value)
		} else {
			value = ValueStyle.Render(value)
		}
		b.WriteString(fmt.Sprintf("%s %s\n", label, value))
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		renderStatBox("Accepted", data.Accepted, successColor),
		renderStatBox("Rejected", data.Rejected, highlightColor),
		renderStatBox("Transient", data.Transient, warningColor),
		renderStatBox("Gave Up", data.GaveUp, errorColor),
	))

	return BoxStyle.Render(b.String())
}

// keyMap defines key bindings.
type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// RunInspectTUI runs the inspect TUI.
func RunInspectTUI(data any) error {
	p := tea.NewProgram(NewInspectModel(data), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// RenderInspectStatic renders inspect data without full TUI (for fallback).
func RenderInspectStatic(data any) string {
	model := NewInspectModel(data)
	model.width = 80
	model.height = 24
	return lipgloss.NewStyle().Padding(1, 2).Render(model.View())
}

func renderStatBox(label string, value int64, color lipgloss.Color) string {
	valueStr := StatValueStyle.Foreground(color).Render(fmt.Sprintf("%d", value))
	labelStr := StatLabelStyle.Render(label)
	return StatBoxStyle.BorderForeground(color).Render(lipgloss.JoinVertical(lipgloss.Center, valueStr, labelStr))
}
