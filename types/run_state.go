package types

// RunState is the lifecycle state of one engine invocation.
//
// Transitions: idle -> running -> {succeeded, exhausted, cancelled, failed}.
// Failed may also be entered directly from idle when setup fails.
// Terminal states are final; a new run is a new state machine.
type RunState string

const (
	// RunStateIdle is the state before the run starts.
	RunStateIdle RunState = "idle"
	// RunStateRunning indicates workers are dispatching candidates.
	RunStateRunning RunState = "running"
	// RunStateSucceeded indicates a candidate was accepted.
	RunStateSucceeded RunState = "succeeded"
	// RunStateExhausted indicates every candidate was tried without success.
	RunStateExhausted RunState = "exhausted"
	// RunStateCancelled indicates the caller cancelled the run.
	RunStateCancelled RunState = "cancelled"
	// RunStateFailed indicates an unrecoverable setup error.
	RunStateFailed RunState = "failed"
)

// IsTerminal reports whether the state is final.
func (s RunState) IsTerminal() bool {
	switch s {
	case RunStateSucceeded, RunStateExhausted, RunStateCancelled, RunStateFailed:
		return true
	default:
		return false
	}
}

// CanTransition reports whether s -> to is a legal lifecycle transition.
func (s RunState) CanTransition(to RunState) bool {
	switch s {
	case RunStateIdle:
		return to == RunStateRunning || to == RunStateFailed
	case RunStateRunning:
		return to.IsTerminal()
	default:
		return false
	}
}
