package tui

import (
	"fmt"
	"slices"
)

// View types with TUI support.
const (
	ViewInspectRun = "inspect_run"
	ViewStatsRun   = "stats_run"
)

// Run starts the appropriate TUI based on the view type.
// Returns an error if the view type doesn't support TUI.
func Run(viewType string, data any) error {
	switch viewType {
	case ViewInspectRun:
		return RunInspectTUI(data)
	case ViewStatsRun:
		return RunStatsTUI(data)
	default:
		return fmt.Errorf("TUI mode is not supported for %s", viewType)
	}
}

// IsTUISupported returns true if the view type supports TUI mode.
func IsTUISupported(viewType string) bool {
	return slices.Contains(SupportedTUIViews(), viewType)
}

// SupportedTUIViews returns a list of view types that support TUI.
func SupportedTUIViews() []string {
	return []string{ViewInspectRun, ViewStatsRun}
}
