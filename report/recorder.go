package report

import (
	"sync"

	"github.com/pithecene-io/keyspace/types"
)

// Recorder keeps every call in memory.
type Recorder struct {
	mu        sync.Mutex
	outcomes  []types.Outcome
	terminals int
	state     types.RunState
	winner    *types.Candidate
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// OnOutcome implements Reporter.
func (r *Recorder) OnOutcome(o types.Outcome) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, o)
	r.mu.Unlock()
}

// OnTerminal implements Reporter.
func (r *Recorder) OnTerminal(state types.RunState, winner *types.Candidate) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.terminals++
	r.state = state
	if winner != nil {
		w := *winner
		r.winner = &w
	}
}

// Outcomes returns a copy of the recorded outcomes in arrival order.
func (r *Recorder) Outcomes() []types.Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]types.Outcome, len(r.outcomes))
	copy(out, r.outcomes)
	return out
}

// Count returns how many outcomes of the given kind were recorded.
func (r *Recorder) Count(kind types.OutcomeKind) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for _, o := range r.outcomes {
		if o.Kind == kind {
			n++
		}
	}
	return n
}

// Terminal returns the last terminal call and how many were made.
func (r *Recorder) Terminal() (state types.RunState, winner *types.Candidate, calls int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, r.winner, r.terminals
}

var _ Reporter = (*Recorder)(nil)
