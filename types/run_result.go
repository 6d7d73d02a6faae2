package types

import (
	"fmt"
	"time"
)

// OutcomeCounts tallies final and transient outcomes for a run.
type OutcomeCounts struct {
	Accepted  int64 `json:"accepted" yaml:"accepted"`
	Rejected  int64 `json:"rejected" yaml:"rejected"`
	Transient int64 `json:"transient" yaml:"transient"`
	GaveUp    int64 `json:"gave_up" yaml:"gave_up"`
	Discarded int64 `json:"discarded" yaml:"discarded"`
}

// RunResult is the terminal result of one engine invocation.
type RunResult struct {
	// RunID identifies the run.
	RunID string
	// State is the terminal state reached.
	State RunState
	// Winner is the accepted candidate. Nil unless State is succeeded.
	Winner *Candidate
	// Evidence is the oracle's evidence for the winner.
	Evidence []byte
	// Attempts is the number of probes issued, retries included.
	Attempts int64
	// Elapsed is the wall time between start and drain.
	Elapsed time.Duration
	// Counts tallies outcomes by kind.
	Counts OutcomeCounts
	// Reason explains why the terminal state was reached.
	Reason string
	// Err is the configuration problem for failed runs.
	Err error
}

// Succeeded reports whether the run found an accepted candidate.
func (r *RunResult) Succeeded() bool {
	return r != nil && r.State == RunStateSucceeded && r.Winner != nil
}

// DescribeTerminal builds the human-readable reason for a terminal state.
func DescribeTerminal(state RunState, winner *Candidate, attempts int64, err error) string {
	switch state {
	case RunStateSucceeded:
		if winner != nil {
			return fmt.Sprintf("candidate %s accepted after %d attempts", winner.Label(), attempts)
		}
		return fmt.Sprintf("candidate accepted after %d attempts", attempts)
	case RunStateExhausted:
		return fmt.Sprintf("keyspace exhausted after %d attempts without acceptance", attempts)
	case RunStateCancelled:
		return fmt.Sprintf("cancelled by caller after %d attempts", attempts)
	case RunStateFailed:
		if err != nil {
			return err.Error()
		}
		return "run failed before start"
	default:
		return fmt.Sprintf("run in non-terminal state %s", state)
	}
}
