package adapter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/types"
)

// DefaultNotifyTimeout bounds the terminal publish.
const DefaultNotifyTimeout = 30 * time.Second

// NotifyReporter counts outcomes as a report.Reporter and publishes a
// SearchCompletedEvent through an Adapter when the run ends.
//
// The publish happens synchronously inside OnTerminal, which the engine
// calls once after every worker has exited.
type NotifyReporter struct {
	adapter Adapter
	meta    EventMeta
	timeout time.Duration
	logger  *log.Logger
	now     func() time.Time
	started time.Time

	accepted  atomic.Int64
	rejected  atomic.Int64
	transient atomic.Int64
	gaveUp    atomic.Int64

	mu  sync.Mutex
	err error
}

// NewNotifyReporter creates a NotifyReporter. timeout <= 0 uses
// DefaultNotifyTimeout. logger may be nil.
func NewNotifyReporter(a Adapter, meta EventMeta, timeout time.Duration, logger *log.Logger) *NotifyReporter {
	if timeout <= 0 {
		timeout = DefaultNotifyTimeout
	}
	return &NotifyReporter{
		adapter: a,
		meta:    meta,
		timeout: timeout,
		logger:  logger,
		now:     time.Now,
		started: time.Now(),
	}
}

// OnOutcome implements report.Reporter.
func (n *NotifyReporter) OnOutcome(o types.Outcome) {
	switch o.Kind {
	case types.OutcomeAccepted:
		n.accepted.Add(1)
	case types.OutcomeRejected:
		n.rejected.Add(1)
	case types.OutcomeTransient:
		n.transient.Add(1)
	case types.OutcomeGaveUp:
		n.gaveUp.Add(1)
	}
}

// OnTerminal implements report.Reporter.
func (n *NotifyReporter) OnTerminal(state types.RunState, winner *types.Candidate) {
	attempts := n.accepted.Load() + n.rejected.Load() + n.transient.Load()
	res := &types.RunResult{
		RunID:   n.meta.RunID,
		State:   state,
		Winner:  winner,
		Elapsed: n.now().Sub(n.started),
		Counts: types.OutcomeCounts{
			Accepted:  n.accepted.Load(),
			Rejected:  n.rejected.Load(),
			Transient: n.transient.Load(),
			GaveUp:    n.gaveUp.Load(),
		},
	}
	res.Reason = types.DescribeTerminal(state, winner, attempts, nil)

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	err := n.adapter.Publish(ctx, NewEvent(n.meta, res, n.now()))
	n.mu.Lock()
	n.err = err
	n.mu.Unlock()

	if err != nil {
		n.logger.Warn("completion notification failed", map[string]any{
			"run_id": n.meta.RunID,
			"error":  err.Error(),
		})
		return
	}
	n.logger.Info("completion notification published", map[string]any{
		"run_id": n.meta.RunID,
		"state":  string(state),
	})
}

// Err returns the error of the terminal publish, if any.
func (n *NotifyReporter) Err() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.err
}
