package report

import (
	"sync"

	"github.com/pithecene-io/keyspace/types"
)

// DefaultAsyncBuffer is the channel capacity used when none is given.
const DefaultAsyncBuffer = 1024

// Async hands outcomes to a background goroutine through a bounded channel.
// OnOutcome blocks only when the channel is full; outcomes are never dropped.
// OnTerminal is delivered after every queued outcome.
type Async struct {
	inner Reporter
	ch    chan asyncCall

	closeOnce sync.Once
	done      chan struct{}

	mu     sync.RWMutex // guards closed against sends
	closed bool
}

type asyncCall struct {
	outcome  types.Outcome
	terminal bool
	state    types.RunState
	winner   *types.Candidate
}

// NewAsync starts the delivery goroutine. buffer <= 0 uses DefaultAsyncBuffer.
func NewAsync(inner Reporter, buffer int) *Async {
	if buffer <= 0 {
		buffer = DefaultAsyncBuffer
	}
	a := &Async{
		inner: inner,
		ch:    make(chan asyncCall, buffer),
		done:  make(chan struct{}),
	}
	go a.loop()
	return a
}

func (a *Async) loop() {
	defer close(a.done)
	for call := range a.ch {
		if call.terminal {
			a.inner.OnTerminal(call.state, call.winner)
			continue
		}
		a.inner.OnOutcome(call.outcome)
	}
}

// OnOutcome implements Reporter. Calls after Close are ignored.
func (a *Async) OnOutcome(o types.Outcome) {
	a.send(asyncCall{outcome: o})
}

// OnTerminal implements Reporter.
func (a *Async) OnTerminal(state types.RunState, winner *types.Candidate) {
	if winner != nil {
		w := *winner
		winner = &w
	}
	a.send(asyncCall{terminal: true, state: state, winner: winner})
}

func (a *Async) send(call asyncCall) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return
	}
	a.ch <- call
}

// Close stops accepting calls and waits until every queued call has been
// delivered. Safe to call more than once.
func (a *Async) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()
	})
	<-a.done
	return nil
}

var _ Reporter = (*Async)(nil)
