// Package report delivers search outcomes to observers.
//
// The engine calls OnOutcome synchronously from whichever worker produced
// the outcome, so implementations must be safe for concurrent use and must
// not block for long. Wrap slow reporters in Async. OnTerminal is called at
// most once per run, after every worker has exited.
package report

import "github.com/pithecene-io/keyspace/types"

// Reporter receives every reported outcome and the terminal state.
type Reporter interface {
	OnOutcome(o types.Outcome)
	OnTerminal(state types.RunState, winner *types.Candidate)
}

// Nop discards everything.
type Nop struct{}

// OnOutcome implements Reporter.
func (Nop) OnOutcome(types.Outcome) {}

// OnTerminal implements Reporter.
func (Nop) OnTerminal(types.RunState, *types.Candidate) {}

// Multi fans each call out to its reporters in order.
type Multi []Reporter

// NewMulti returns a Multi over the non-nil reporters.
func NewMulti(reporters ...Reporter) Multi {
	m := make(Multi, 0, len(reporters))
	for _, r := range reporters {
		if r != nil {
			m = append(m, r)
		}
	}
	return m
}

// OnOutcome implements Reporter.
func (m Multi) OnOutcome(o types.Outcome) {
	for _, r := range m {
		r.OnOutcome(o)
	}
}

// OnTerminal implements Reporter.
func (m Multi) OnTerminal(state types.RunState, winner *types.Candidate) {
	for _, r := range m {
		r.OnTerminal(state, winner)
	}
}

var (
	_ Reporter = Nop{}
	_ Reporter = Multi(nil)
)
