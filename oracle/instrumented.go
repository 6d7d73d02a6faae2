package oracle

import (
	"context"
	"sync/atomic"

	"github.com/pithecene-io/keyspace/types"
)

// Instrumented wraps an Oracle and tracks call counts and concurrency.
type Instrumented struct {
	inner Oracle

	calls       atomic.Int64
	inFlight    atomic.Int64
	maxInFlight atomic.Int64
}

// Instrument wraps inner.
func Instrument(inner Oracle) *Instrumented {
	return &Instrumented{inner: inner}
}

// Probe implements Oracle.
func (o *Instrumented) Probe(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome {
	o.calls.Add(1)
	cur := o.inFlight.Add(1)
	for {
		peak := o.maxInFlight.Load()
		if cur <= peak || o.maxInFlight.CompareAndSwap(peak, cur) {
			break
		}
	}
	defer o.inFlight.Add(-1)

	return o.inner.Probe(ctx, c, session)
}

// Calls returns the number of probes issued.
func (o *Instrumented) Calls() int64 {
	return o.calls.Load()
}

// InFlight returns the number of probes currently executing.
func (o *Instrumented) InFlight() int64 {
	return o.inFlight.Load()
}

// MaxInFlight returns the peak number of concurrent probes observed.
func (o *Instrumented) MaxInFlight() int64 {
	return o.maxInFlight.Load()
}

var _ Oracle = (*Instrumented)(nil)
