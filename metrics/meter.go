// Package metrics provides per-run throughput metrics.
//
// The Meter accumulates counters during a single run. It is a leaf package
// with no internal dependencies; the scheduler records outcomes by kind name
// so the meter stays free of the types package.
package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot is an immutable point-in-time view of the meter.
// Returned by Meter.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Probes
	Attempts  int64 `json:"attempts" yaml:"attempts"`
	Accepted  int64 `json:"accepted" yaml:"accepted"`
	Rejected  int64 `json:"rejected" yaml:"rejected"`
	Transient int64 `json:"transient" yaml:"transient"`
	GaveUp    int64 `json:"gave_up" yaml:"gave_up"`
	Discarded int64 `json:"discarded" yaml:"discarded"`

	// Scheduler
	Retries      int64 `json:"retries" yaml:"retries"`
	StaleSignals int64 `json:"stale_signals" yaml:"stale_signals"`
	InFlight     int64 `json:"in_flight" yaml:"in_flight"`
	PeakInFlight int64 `json:"peak_in_flight" yaml:"peak_in_flight"`

	// Lode / Storage (per write call)
	StoreWriteSuccess int64 `json:"store_write_success" yaml:"store_write_success"`
	StoreWriteFailure int64 `json:"store_write_failure" yaml:"store_write_failure"`

	Elapsed time.Duration `json:"elapsed" yaml:"elapsed"`
	// Rate is attempts per second over Elapsed.
	Rate float64 `json:"rate" yaml:"rate"`

	// Dimensions (informational, set at construction)
	RunID    string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	Strategy string `json:"strategy,omitempty" yaml:"strategy,omitempty"`
}

// Meter accumulates metrics during a single run.
// Lock-free via sync/atomic. All methods are nil-receiver safe.
type Meter struct {
	attempts  atomic.Int64
	accepted  atomic.Int64
	rejected  atomic.Int64
	transient atomic.Int64
	gaveUp    atomic.Int64
	discarded atomic.Int64

	retries      atomic.Int64
	staleSignals atomic.Int64
	inFlight     atomic.Int64
	peakInFlight atomic.Int64

	storeWriteSuccess atomic.Int64
	storeWriteFailure atomic.Int64

	started atomic.Int64 // unix nanos, 0 until Start
	stopped atomic.Int64 // unix nanos, 0 while running

	now func() time.Time

	runID    string
	strategy string
}

// NewMeter creates a Meter with dimension labels.
func NewMeter(runID, strategy string) *Meter {
	return &Meter{now: time.Now, runID: runID, strategy: strategy}
}

// Start marks the start of the measured interval. Subsequent calls reset it.
func (m *Meter) Start() {
	if m == nil {
		return
	}
	m.started.Store(m.clock().UnixNano())
	m.stopped.Store(0)
}

// Stop freezes Elapsed at the current time.
func (m *Meter) Stop() {
	if m == nil {
		return
	}
	m.stopped.CompareAndSwap(0, m.clock().UnixNano())
}

func (m *Meter) clock() time.Time {
	if m.now == nil {
		return time.Now()
	}
	return m.now()
}

// --- Probes ---

// ProbeStarted records a dispatched probe and raises the in-flight gauge.
func (m *Meter) ProbeStarted() {
	if m == nil {
		return
	}
	m.attempts.Add(1)
	n := m.inFlight.Add(1)
	for {
		peak := m.peakInFlight.Load()
		if n <= peak || m.peakInFlight.CompareAndSwap(peak, n) {
			return
		}
	}
}

// ProbeFinished lowers the in-flight gauge.
func (m *Meter) ProbeFinished() {
	if m == nil {
		return
	}
	m.inFlight.Add(-1)
}

// Record counts a reported outcome by kind name
// ("accepted", "rejected", "transient", "gave_up"). Unknown kinds are ignored.
func (m *Meter) Record(kind string) {
	if m == nil {
		return
	}
	switch kind {
	case "accepted":
		m.accepted.Add(1)
	case "rejected":
		m.rejected.Add(1)
	case "transient":
		m.transient.Add(1)
	case "gave_up":
		m.gaveUp.Add(1)
	}
}

// IncDiscarded records a probe result dropped because the run already had
// a winner or was cancelled.
func (m *Meter) IncDiscarded() {
	if m == nil {
		return
	}
	m.discarded.Add(1)
}

// --- Scheduler ---

// IncRetries records a re-enqueued candidate.
func (m *Meter) IncRetries() {
	if m == nil {
		return
	}
	m.retries.Add(1)
}

// IncStaleSignals records a stale signal sent to the session provider.
func (m *Meter) IncStaleSignals() {
	if m == nil {
		return
	}
	m.staleSignals.Add(1)
}

// --- Lode / Storage ---

// IncStoreWriteSuccess records a successful store write (per-call).
func (m *Meter) IncStoreWriteSuccess() {
	if m == nil {
		return
	}
	m.storeWriteSuccess.Add(1)
}

// IncStoreWriteFailure records a failed store write (per-call).
func (m *Meter) IncStoreWriteFailure() {
	if m == nil {
		return
	}
	m.storeWriteFailure.Add(1)
}

// --- Snapshot ---

// Snapshot returns a point-in-time view of all counters. Counters are read
// individually, so a snapshot taken mid-run may be off by in-flight updates.
func (m *Meter) Snapshot() Snapshot {
	if m == nil {
		return Snapshot{}
	}

	s := Snapshot{
		Attempts:  m.attempts.Load(),
		Accepted:  m.accepted.Load(),
		Rejected:  m.rejected.Load(),
		Transient: m.transient.Load(),
		GaveUp:    m.gaveUp.Load(),
		Discarded: m.discarded.Load(),

		Retries:      m.retries.Load(),
		StaleSignals: m.staleSignals.Load(),
		InFlight:     m.inFlight.Load(),
		PeakInFlight: m.peakInFlight.Load(),

		StoreWriteSuccess: m.storeWriteSuccess.Load(),
		StoreWriteFailure: m.storeWriteFailure.Load(),

		RunID:    m.runID,
		Strategy: m.strategy,
	}

	if started := m.started.Load(); started != 0 {
		end := m.stopped.Load()
		if end == 0 {
			end = m.clock().UnixNano()
		}
		s.Elapsed = time.Duration(end - started)
		if secs := s.Elapsed.Seconds(); secs > 0 {
			s.Rate = float64(s.Attempts) / secs
		}
	}
	return s
}
