package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pithecene-io/keyspace/lode"
	"github.com/pithecene-io/keyspace/metrics"
)

func TestIsTUISupported(t *testing.T) {
	tests := []struct {
		viewType string
		want     bool
	}{
		{"inspect_run", true},
		{"stats_run", true},
		{"plan", false},
		{"bench", false},
		{"version", false},
		{"unknown", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.viewType, func(t *testing.T) {
			if got := IsTUISupported(tt.viewType); got != tt.want {
				t.Errorf("IsTUISupported(%q) = %v, want %v", tt.viewType, got, tt.want)
			}
		})
	}
}

func TestRun_UnsupportedViewType(t *testing.T) {
	if err := Run("plan", nil); err == nil {
		t.Error("Expected error for unsupported view type")
	}
}

func TestRunStatsTUI_WrongData(t *testing.T) {
	if err := RunStatsTUI("not a snapshot"); err == nil {
		t.Error("Expected error for wrong data type")
	}
}

func TestRenderInspectStatic(t *testing.T) {
	seq := int64(41)
	out := RenderInspectStatic(&lode.SummaryRecord{
		RunID:     "run-7",
		Strategy:  "alphabet",
		State:     "succeeded",
		Reason:    "candidate seq#41 accepted after 42 attempts",
		WinnerSeq: &seq,
		Attempts:  42,
		Accepted:  1,
		Rejected:  41,
		ElapsedMs: 1500,
	})

	for _, want := range []string{"run-7", "succeeded", "1.5s", "41"} {
		if !strings.Contains(out, want) {
			t.Errorf("inspect view missing %q:\n%s", want, out)
		}
	}
}

func TestRenderInspectStatic_InvalidData(t *testing.T) {
	if out := RenderInspectStatic(42); !strings.Contains(out, "Invalid data type") {
		t.Errorf("expected invalid data message, got:\n%s", out)
	}
}

func TestStatsModel_SnapshotAndDone(t *testing.T) {
	var m tea.Model = NewStatsModel(metrics.Snapshot{RunID: "run-1"})

	m, _ = m.Update(SnapshotMsg(metrics.Snapshot{RunID: "run-1", Attempts: 1234, Elapsed: 2 * time.Second, Rate: 617}))
	if !strings.Contains(m.View(), "1234") {
		t.Errorf("view missing attempts:\n%s", m.View())
	}

	m, cmd := m.Update(DoneMsg{State: "exhausted", Reason: "keyspace exhausted after 1234 attempts without acceptance"})
	if cmd == nil {
		t.Fatal("DoneMsg should quit the program")
	}
	if !strings.Contains(m.View(), "keyspace exhausted") {
		t.Errorf("view missing terminal reason:\n%s", m.View())
	}
}

func TestStatsModel_QuitKey(t *testing.T) {
	m := NewStatsModel(metrics.Snapshot{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("q should quit")
	}
	if next.View() != "" {
		t.Error("view should be empty after quitting")
	}
}
