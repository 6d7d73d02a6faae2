package metrics

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMeter_Counters(t *testing.T) {
	m := NewMeter("run-001", "alphabet")

	for range 3 {
		m.ProbeStarted()
	}
	m.ProbeFinished()
	m.Record("rejected")
	m.Record("rejected")
	m.Record("transient")
	m.Record("gave_up")
	m.Record("accepted")
	m.Record("bogus")
	m.IncDiscarded()
	m.IncRetries()
	m.IncStaleSignals()
	m.IncStoreWriteSuccess()
	m.IncStoreWriteFailure()

	s := m.Snapshot()

	checks := []struct {
		name      string
		got, want int64
	}{
		{"Attempts", s.Attempts, 3},
		{"Accepted", s.Accepted, 1},
		{"Rejected", s.Rejected, 2},
		{"Transient", s.Transient, 1},
		{"GaveUp", s.GaveUp, 1},
		{"Discarded", s.Discarded, 1},
		{"Retries", s.Retries, 1},
		{"StaleSignals", s.StaleSignals, 1},
		{"InFlight", s.InFlight, 2},
		{"PeakInFlight", s.PeakInFlight, 3},
		{"StoreWriteSuccess", s.StoreWriteSuccess, 1},
		{"StoreWriteFailure", s.StoreWriteFailure, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if s.RunID != "run-001" || s.Strategy != "alphabet" {
		t.Errorf("dimensions = %q/%q", s.RunID, s.Strategy)
	}
}

func TestMeter_ElapsedAndRate(t *testing.T) {
	m := NewMeter("", "")
	base := time.Unix(1_700_000_000, 0)
	now := base
	m.now = func() time.Time { return now }

	if s := m.Snapshot(); s.Elapsed != 0 || s.Rate != 0 {
		t.Errorf("before Start: Elapsed=%v Rate=%v, want zero", s.Elapsed, s.Rate)
	}

	m.Start()
	for range 10 {
		m.ProbeStarted()
	}
	now = base.Add(2 * time.Second)
	m.Stop()
	now = base.Add(time.Hour)

	s := m.Snapshot()
	if s.Elapsed != 2*time.Second {
		t.Errorf("Elapsed = %v, want 2s (frozen at Stop)", s.Elapsed)
	}
	if s.Rate != 5 {
		t.Errorf("Rate = %v, want 5", s.Rate)
	}
}

func TestMeter_NilSafe(t *testing.T) {
	var m *Meter

	// None of these should panic.
	m.Start()
	m.Stop()
	m.ProbeStarted()
	m.ProbeFinished()
	m.Record("accepted")
	m.IncDiscarded()
	m.IncRetries()
	m.IncStaleSignals()
	m.IncStoreWriteSuccess()
	m.IncStoreWriteFailure()

	if s := m.Snapshot(); s.Attempts != 0 {
		t.Errorf("nil Snapshot().Attempts = %d, want 0", s.Attempts)
	}
}

func TestMeter_ConcurrentAccess(t *testing.T) {
	m := NewMeter("", "")
	var wg sync.WaitGroup

	for range 100 {
		wg.Go(func() {
			m.ProbeStarted()
			m.Record("rejected")
			m.ProbeFinished()
		})
	}
	wg.Wait()

	s := m.Snapshot()
	if s.Attempts != 100 {
		t.Errorf("Attempts = %d, want 100", s.Attempts)
	}
	if s.Rejected != 100 {
		t.Errorf("Rejected = %d, want 100", s.Rejected)
	}
	if s.InFlight != 0 {
		t.Errorf("InFlight = %d, want 0", s.InFlight)
	}
	if s.PeakInFlight < 1 || s.PeakInFlight > 100 {
		t.Errorf("PeakInFlight = %d, want within [1,100]", s.PeakInFlight)
	}
}

func TestSampler(t *testing.T) {
	m := NewMeter("", "")
	m.ProbeStarted()

	var calls atomic.Int64
	s := NewSampler(m, 5*time.Millisecond, func(snap Snapshot) {
		if snap.Attempts == 1 {
			calls.Add(1)
		}
	})

	deadline := time.Now().Add(5 * time.Second)
	for calls.Load() < 2 {
		if time.Now().After(deadline) {
			t.Fatal("sampler did not fire")
		}
		time.Sleep(time.Millisecond)
	}

	s.Stop()
	s.Stop()
	after := calls.Load()
	time.Sleep(20 * time.Millisecond)
	if calls.Load() != after {
		t.Error("sampler fired after Stop")
	}
}
