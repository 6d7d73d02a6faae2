package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/metrics"
	"github.com/pithecene-io/keyspace/oracle"
	"github.com/pithecene-io/keyspace/report"
	"github.com/pithecene-io/keyspace/session"
	"github.com/pithecene-io/keyspace/types"
)

// testConfig returns a fast configuration for tests.
func testConfig(workers int) Config {
	cfg := DefaultConfig()
	cfg.Concurrency = workers
	cfg.BackoffBase = time.Millisecond
	cfg.BackoffCap = 4 * time.Millisecond
	cfg.ProbeTimeout = 5 * time.Second
	return cfg
}

func alphabet(t *testing.T, symbols []string, length int) *candidate.Alphabet {
	t.Helper()
	a, err := candidate.NewAlphabet(candidate.AlphabetConfig{Symbols: symbols, Length: length})
	if err != nil {
		t.Fatalf("NewAlphabet failed: %v", err)
	}
	return a
}

func wordlist(t *testing.T, words []string) *candidate.Wordlist {
	t.Helper()
	w, err := candidate.NewWordlist(words, 0)
	if err != nil {
		t.Fatalf("NewWordlist failed: %v", err)
	}
	return w
}

// acceptOnly accepts target and rejects everything else.
func acceptOnly(target string) oracle.Func {
	return func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		if c.Value == target {
			return types.Accepted(c, []byte("welcome"))
		}
		return types.Rejected(c)
	}
}

func rejectAll() oracle.Func {
	return func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		return types.Rejected(c)
	}
}

func alwaysTransient() oracle.Func {
	return func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		return types.Transient(c, errors.New("connection reset"))
	}
}

// valueCounts tallies outcomes by candidate value for the given kinds.
func valueCounts(outcomes []types.Outcome, kinds ...types.OutcomeKind) map[string]int {
	want := map[types.OutcomeKind]bool{}
	for _, k := range kinds {
		want[k] = true
	}
	counts := map[string]int{}
	for _, o := range outcomes {
		if want[o.Kind] {
			counts[o.Candidate.Value]++
		}
	}
	return counts
}

func TestRun_ExhaustsEveryCandidateOnce(t *testing.T) {
	src := alphabet(t, []string{"a", "b", "c"}, 3)
	rec := report.NewRecorder()
	probes := oracle.Instrument(rejectAll())

	res := Start(t.Context(), src, probes, session.NewStatic(nil), testConfig(8), rec)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted (reason: %s)", res.State, res.Reason)
	}
	if res.Attempts != 27 || probes.Calls() != 27 {
		t.Errorf("Attempts = %d, calls = %d, want 27", res.Attempts, probes.Calls())
	}

	counts := valueCounts(rec.Outcomes(), types.OutcomeRejected)
	if len(counts) != 27 {
		t.Errorf("distinct rejected = %d, want 27", len(counts))
	}
	for v, n := range counts {
		if n != 1 {
			t.Errorf("candidate %q rejected %d times", v, n)
		}
	}

	if _, _, calls := rec.Terminal(); calls != 1 {
		t.Errorf("OnTerminal calls = %d, want 1", calls)
	}
	if res.Winner != nil {
		t.Errorf("Winner = %v, want nil", res.Winner)
	}
	if res.Reason == "" {
		t.Error("Reason is empty")
	}
}

func TestRun_SucceedsExactlyOnceInLargeSpace(t *testing.T) {
	words := make([]string, 10_000)
	for i := range words {
		words[i] = fmt.Sprintf("cand-%05d", i)
	}
	words[7342] = "X7k2Qz"

	rec := report.NewRecorder()
	res := Start(t.Context(), wordlist(t, words), acceptOnly("X7k2Qz"), session.NewStatic(nil), testConfig(16), rec)

	if res.State != types.RunStateSucceeded {
		t.Fatalf("State = %s, want succeeded (reason: %s)", res.State, res.Reason)
	}
	if res.Winner == nil || res.Winner.Value != "X7k2Qz" {
		t.Fatalf("Winner = %v, want X7k2Qz", res.Winner)
	}
	if string(res.Evidence) != "welcome" {
		t.Errorf("Evidence = %q", res.Evidence)
	}
	if res.Attempts < 1 || res.Attempts > 10_000 {
		t.Errorf("Attempts = %d, want within [1, 10000]", res.Attempts)
	}
	if got := rec.Count(types.OutcomeAccepted); got != 1 {
		t.Errorf("accepted outcomes = %d, want 1", got)
	}

	state, winner, calls := rec.Terminal()
	if calls != 1 || state != types.RunStateSucceeded || winner == nil || winner.Value != "X7k2Qz" {
		t.Errorf("terminal = %s/%v/%d", state, winner, calls)
	}
	if !res.Succeeded() {
		t.Error("Succeeded() = false")
	}
}

func TestRun_BoundedConcurrency(t *testing.T) {
	slow := oracle.Func(func(ctx context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		time.Sleep(time.Millisecond)
		return types.Rejected(c)
	})
	probes := oracle.Instrument(slow)
	meter := metrics.NewMeter("", "")

	cfg := testConfig(5)
	cfg.Meter = meter
	words := make([]string, 200)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}

	res := Start(t.Context(), wordlist(t, words), probes, session.NewStatic(nil), cfg, nil)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if peak := probes.MaxInFlight(); peak < 1 || peak > 5 {
		t.Errorf("MaxInFlight = %d, want within [1, 5]", peak)
	}
	if peak := meter.Snapshot().PeakInFlight; peak > 5 {
		t.Errorf("meter PeakInFlight = %d, want <= 5", peak)
	}
	if s := meter.Snapshot(); s.Attempts != 200 || s.Rejected != 200 || s.InFlight != 0 {
		t.Errorf("meter = %+v", s)
	}
}

func TestRun_ConcreteTwoByTwo(t *testing.T) {
	rec := report.NewRecorder()
	res := Start(t.Context(), alphabet(t, []string{"a", "b"}, 2), acceptOnly("ba"), session.NewStatic(nil), testConfig(2), rec)

	if res.State != types.RunStateSucceeded || res.Winner == nil || res.Winner.Value != "ba" {
		t.Fatalf("result = %s/%v, want succeeded/ba", res.State, res.Winner)
	}
	if res.Attempts < 1 || res.Attempts > 4 {
		t.Errorf("Attempts = %d, want within [1, 4]", res.Attempts)
	}

	outcomes := rec.Outcomes()
	if got := rec.Count(types.OutcomeAccepted); got != 1 {
		t.Errorf("accepted = %d, want 1", got)
	}
	if got := rec.Count(types.OutcomeRejected); got > 3 {
		t.Errorf("rejected = %d, want <= 3", got)
	}
	for v, n := range valueCounts(outcomes, types.OutcomeAccepted, types.OutcomeRejected) {
		if n != 1 {
			t.Errorf("candidate %q reported %d times", v, n)
		}
	}
}

func TestRun_CancellationIsDeterministic(t *testing.T) {
	const workers = 4
	started := make(chan struct{}, 100)
	gate := make(chan struct{})

	// Ignores ctx: results produced after cancellation must be discarded.
	stubborn := oracle.Func(func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		started <- struct{}{}
		<-gate
		return types.Rejected(c)
	})
	probes := oracle.Instrument(stubborn)
	rec := report.NewRecorder()

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan *types.RunResult)
	go func() {
		done <- Start(ctx, alphabet(t, []string{"a", "b", "c"}, 4), probes, session.NewStatic(nil), testConfig(workers), rec)
	}()

	for range workers {
		<-started
	}
	cancel()
	close(gate)

	var res *types.RunResult
	select {
	case res = <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if res.State != types.RunStateCancelled {
		t.Fatalf("State = %s, want cancelled", res.State)
	}
	if !errors.Is(res.Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", res.Err)
	}
	if res.Counts.Discarded != workers {
		t.Errorf("Discarded = %d, want %d", res.Counts.Discarded, workers)
	}
	if probes.InFlight() != 0 {
		t.Errorf("InFlight after return = %d, want 0", probes.InFlight())
	}

	before := len(rec.Outcomes())
	time.Sleep(20 * time.Millisecond)
	if after := len(rec.Outcomes()); after != before {
		t.Errorf("outcomes reported after Run returned: %d -> %d", before, after)
	}
	if state, _, calls := rec.Terminal(); calls != 1 || state != types.RunStateCancelled {
		t.Errorf("terminal = %s/%d", state, calls)
	}
}

func TestRun_CancelledContextHonoredByOracle(t *testing.T) {
	blocking := oracle.Func(func(ctx context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		<-ctx.Done()
		return types.Transient(c, ctx.Err())
	})

	ctx, cancel := context.WithTimeout(t.Context(), 20*time.Millisecond)
	defer cancel()

	res := Start(ctx, alphabet(t, []string{"a", "b"}, 8), blocking, session.NewStatic(nil), testConfig(3), nil)
	if res.State != types.RunStateCancelled {
		t.Errorf("State = %s, want cancelled", res.State)
	}
}

func TestRun_RetriesAreBounded(t *testing.T) {
	probes := oracle.Instrument(alwaysTransient())
	rec := report.NewRecorder()

	cfg := testConfig(2)
	cfg.MaxRetries = 2
	res := Start(t.Context(), wordlist(t, []string{"x", "y", "z"}), probes, session.NewStatic(nil), cfg, rec)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if probes.Calls() != 9 {
		t.Errorf("oracle calls = %d, want 9 (3 candidates x (1 + 2 retries))", probes.Calls())
	}
	if res.Counts.GaveUp != 3 || res.Counts.Transient != 9 {
		t.Errorf("Counts = %+v, want 3 gave_up and 9 transient", res.Counts)
	}
	for v, n := range valueCounts(rec.Outcomes(), types.OutcomeGaveUp) {
		if n != 1 {
			t.Errorf("candidate %q gave up %d times", v, n)
		}
	}
	for _, o := range rec.Outcomes() {
		if o.Kind == types.OutcomeGaveUp && o.Attempt != 3 {
			t.Errorf("gave_up attempt = %d, want 3", o.Attempt)
		}
	}
}

func TestRun_RetryThenAccept(t *testing.T) {
	var first atomic.Bool
	flaky := oracle.Func(func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		if c.Value == "ok" && first.CompareAndSwap(false, true) {
			return types.Transient(c, errors.New("503"))
		}
		return acceptOnly("ok")(context.Background(), c, nil)
	})

	res := Start(t.Context(), wordlist(t, []string{"no", "ok", "nope"}), flaky, session.NewStatic(nil), testConfig(1), nil)
	if res.State != types.RunStateSucceeded || res.Winner.Value != "ok" {
		t.Fatalf("result = %s/%v, want succeeded/ok", res.State, res.Winner)
	}
	if res.Counts.Transient != 1 {
		t.Errorf("Transient = %d, want 1", res.Counts.Transient)
	}
}

func TestRun_StaleSignalAtThreshold(t *testing.T) {
	provider := session.NewStatic(nil)
	meter := metrics.NewMeter("", "")

	cfg := testConfig(3)
	cfg.MaxRetries = 0
	cfg.StaleBurstThreshold = 3
	cfg.StaleWindow = time.Minute
	cfg.Meter = meter

	res := Start(t.Context(), wordlist(t, []string{"a", "b", "c", "d", "e"}), alwaysTransient(), provider, cfg, nil)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if provider.Signals() != 1 {
		t.Errorf("stale signals = %d, want 1", provider.Signals())
	}
	if meter.Snapshot().StaleSignals != 1 {
		t.Errorf("meter StaleSignals = %d, want 1", meter.Snapshot().StaleSignals)
	}
}

func TestRun_InvalidSessionIsStaleTransient(t *testing.T) {
	expired := types.NewSessionContext("old", nil, time.Now().Add(-time.Hour), time.Minute)
	probes := oracle.Instrument(rejectAll())
	rec := report.NewRecorder()

	cfg := testConfig(1)
	cfg.MaxRetries = 1
	res := Start(t.Context(), wordlist(t, []string{"a", "b"}), probes, session.NewStatic(expired), cfg, rec)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if probes.Calls() != 0 {
		t.Errorf("oracle calls = %d, want 0 with an expired session", probes.Calls())
	}
	if res.Counts.GaveUp != 2 {
		t.Errorf("GaveUp = %d, want 2", res.Counts.GaveUp)
	}
	for _, o := range rec.Outcomes() {
		if o.Kind == types.OutcomeTransient && !types.IsStale(o.Cause) {
			t.Errorf("transient cause %v is not flagged stale", o.Cause)
		}
	}
}

func TestRun_ProbeTimeoutIsTransient(t *testing.T) {
	hang := oracle.Func(func(ctx context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		<-ctx.Done()
		return types.Transient(c, ctx.Err())
	})
	rec := report.NewRecorder()

	cfg := testConfig(1)
	cfg.MaxRetries = 0
	cfg.ProbeTimeout = 5 * time.Millisecond
	res := Start(t.Context(), wordlist(t, []string{"a"}), hang, session.NewStatic(nil), cfg, rec)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	var sawTimeout bool
	for _, o := range rec.Outcomes() {
		if o.Kind == types.OutcomeTransient && errors.Is(o.Cause, types.ErrProbeTimeout) {
			sawTimeout = true
		}
	}
	if !sawTimeout {
		t.Error("no transient outcome wrapped ErrProbeTimeout")
	}
}

func TestRun_InvalidConfigFailsWithoutProbing(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		source func(t *testing.T) candidate.Source
		field  string
	}{
		{"zero workers", func(c *Config) { c.Concurrency = 0 }, nil, "concurrency"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, nil, "max_retries"},
		{"cap below base", func(c *Config) { c.BackoffCap = 0; c.BackoffBase = time.Second }, nil, "backoff_cap"},
		{"negative rate", func(c *Config) { c.RateLimit = -1 }, nil, "rate_limit"},
		{"stale without window", func(c *Config) { c.StaleBurstThreshold = 2; c.StaleWindow = 0 }, nil, "stale_window"},
		{"nil source", func(*Config) {}, func(*testing.T) candidate.Source { return nil }, "source"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig(2)
			tt.mutate(&cfg)

			var src candidate.Source = alphabet(t, []string{"a"}, 1)
			if tt.source != nil {
				src = tt.source(t)
			}
			probes := oracle.Instrument(rejectAll())
			rec := report.NewRecorder()

			res := Start(t.Context(), src, probes, session.NewStatic(nil), cfg, rec)

			if res.State != types.RunStateFailed {
				t.Fatalf("State = %s, want failed", res.State)
			}
			var cfgErr *types.ConfigurationError
			if !errors.As(res.Err, &cfgErr) || cfgErr.Field != tt.field {
				t.Errorf("Err = %v, want ConfigurationError on %s", res.Err, tt.field)
			}
			if probes.Calls() != 0 {
				t.Errorf("oracle calls = %d, want 0", probes.Calls())
			}
			if state, _, calls := rec.Terminal(); calls != 1 || state != types.RunStateFailed {
				t.Errorf("terminal = %s/%d", state, calls)
			}
			if res.Reason == "" {
				t.Error("Reason is empty")
			}
		})
	}
}

func TestRun_PriorityCandidatesFirst(t *testing.T) {
	bulk := alphabet(t, []string{"a", "b"}, 2)
	src := candidate.NewPrioritized(bulk, []string{"bb", "zz"}, []string{"aa"})

	var mu sync.Mutex
	var order []string
	tracking := oracle.Func(func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		mu.Lock()
		order = append(order, c.Value)
		mu.Unlock()
		return types.Rejected(c)
	})

	res := Start(t.Context(), src, tracking, session.NewStatic(nil), testConfig(1), nil)
	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}

	want := []string{"bb", "zz", "ab", "ba"}
	if len(order) != len(want) {
		t.Fatalf("probe order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("probe %d = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestRun_WatermarkAfterExhaustion(t *testing.T) {
	wm := candidate.NewWatermark(0)
	cfg := testConfig(4)
	cfg.Watermark = wm

	res := Start(t.Context(), alphabet(t, []string{"a", "b", "c"}, 2), rejectAll(), session.NewStatic(nil), cfg, nil)
	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if wm.Low() != 9 || wm.Pending() != 0 {
		t.Errorf("Low/Pending = %d/%d, want 9/0", wm.Low(), wm.Pending())
	}
}

func TestRun_PerWorkerDelayUsesSleep(t *testing.T) {
	var sleeps atomic.Int64
	cfg := testConfig(1)
	cfg.PerWorkerDelay = 250 * time.Millisecond
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		if d != 250*time.Millisecond {
			t.Errorf("sleep(%s), want 250ms", d)
		}
		sleeps.Add(1)
		return ctx.Err()
	}

	res := Start(t.Context(), wordlist(t, []string{"a", "b", "c", "d"}), rejectAll(), session.NewStatic(nil), cfg, nil)
	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if sleeps.Load() != 3 {
		t.Errorf("sleeps = %d, want 3 (between consecutive probes)", sleeps.Load())
	}
}

func TestRun_RateLimit(t *testing.T) {
	cfg := testConfig(4)
	cfg.RateLimit = 200

	start := time.Now()
	res := Start(t.Context(), wordlist(t, []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}), rejectAll(), session.NewStatic(nil), cfg, nil)
	elapsed := time.Since(start)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted", res.State)
	}
	if elapsed < 40*time.Millisecond {
		t.Errorf("10 probes at 200/s took %s, want >= 40ms", elapsed)
	}
}

func TestRun_PanickingOracleIsTransient(t *testing.T) {
	boom := oracle.Func(func(context.Context, types.Candidate, *types.SessionContext) types.Outcome {
		panic("boom")
	})
	cfg := testConfig(2)
	cfg.MaxRetries = 1

	res := Start(t.Context(), wordlist(t, []string{"a", "b"}), boom, session.NewStatic(nil), cfg, nil)
	if res.State != types.RunStateExhausted || res.Counts.GaveUp != 2 {
		t.Errorf("result = %s gave_up=%d, want exhausted with 2 gave_up", res.State, res.Counts.GaveUp)
	}
}

// failingSource returns an error after n candidates.
type failingSource struct {
	n     atomic.Int64
	limit int64
}

func (f *failingSource) Next() (types.Candidate, error) {
	i := f.n.Add(1) - 1
	if i >= f.limit {
		return types.Candidate{}, errors.New("wordlist read error")
	}
	return types.Candidate{Value: fmt.Sprint(i), Seq: i}, nil
}

func (f *failingSource) Size() int64 { return -1 }

func TestRun_SourceErrorFails(t *testing.T) {
	res := Start(t.Context(), &failingSource{limit: 3}, rejectAll(), session.NewStatic(nil), testConfig(2), nil)
	if res.State != types.RunStateFailed {
		t.Fatalf("State = %s, want failed", res.State)
	}
	if res.Err == nil || res.Reason == "" {
		t.Errorf("Err/Reason = %v/%q", res.Err, res.Reason)
	}
}

func TestRun_SchedulerIsReusable(t *testing.T) {
	s := New(testConfig(3))
	for range 2 {
		res := s.Run(t.Context(), alphabet(t, []string{"a", "b"}, 2), acceptOnly("bb"), session.NewStatic(nil), nil)
		if res.State != types.RunStateSucceeded {
			t.Errorf("State = %s, want succeeded", res.State)
		}
	}
}

// slowWinReporter marks when the winner is reported and then stalls.
type slowWinReporter struct {
	reported *atomic.Bool
	delay    time.Duration
}

func (s slowWinReporter) OnOutcome(o types.Outcome) {
	if o.Kind == types.OutcomeAccepted {
		s.reported.Store(true)
		time.Sleep(s.delay)
	}
}

func (slowWinReporter) OnTerminal(types.RunState, *types.Candidate) {}

func TestRun_NoDispatchWhileWinnerIsReported(t *testing.T) {
	var reported atomic.Bool
	var late atomic.Int64
	accept := acceptOnly("aafj")
	watching := oracle.Func(func(ctx context.Context, c types.Candidate, s *types.SessionContext) types.Outcome {
		if reported.Load() {
			late.Add(1)
		}
		return accept(ctx, c, s)
	})

	cfg := testConfig(4)
	cfg.PerWorkerDelay = 5 * time.Millisecond
	reporter := slowWinReporter{reported: &reported, delay: 100 * time.Millisecond}

	res := Start(t.Context(), alphabet(t, candidate.SplitSymbols("abcdefghij"), 4), watching, session.NewStatic(nil), cfg, reporter)
	if res.State != types.RunStateSucceeded || res.Winner.Value != "aafj" {
		t.Fatalf("result = %s/%v, want succeeded/aafj", res.State, res.Winner)
	}
	if n := late.Load(); n != 0 {
		t.Errorf("%d probes started after the winner was reported", n)
	}
}

func TestRun_RetryWaitUsesInjectedClock(t *testing.T) {
	fixed := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	var mu sync.Mutex
	var waits []time.Duration

	cfg := testConfig(1)
	cfg.MaxRetries = 1
	cfg.BackoffBase = time.Hour
	cfg.BackoffCap = time.Hour
	cfg.Now = func() time.Time { return fixed }
	cfg.Sleep = func(ctx context.Context, d time.Duration) error {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ctx.Err()
	}

	ctx, cancel := context.WithTimeout(t.Context(), 5*time.Second)
	defer cancel()

	probes := oracle.Instrument(alwaysTransient())
	res := Start(ctx, wordlist(t, []string{"x"}), probes, session.NewStatic(nil), cfg, nil)

	if res.State != types.RunStateExhausted {
		t.Fatalf("State = %s, want exhausted (reason: %s)", res.State, res.Reason)
	}
	if probes.Calls() != 2 {
		t.Errorf("oracle calls = %d, want 2", probes.Calls())
	}
	if res.Elapsed != 0 {
		t.Errorf("Elapsed = %s, want 0 under a fixed clock", res.Elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(waits) == 0 || waits[0] != time.Hour {
		t.Errorf("retry waits = %v, want a 1h wait on the injected clock", waits)
	}
}

func TestRun_AcceptedWinsOverConcurrentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	cancelThenAccept := oracle.Func(func(_ context.Context, c types.Candidate, _ *types.SessionContext) types.Outcome {
		cancel()
		return types.Accepted(c, nil)
	})
	rec := report.NewRecorder()

	res := Start(ctx, wordlist(t, []string{"x", "y"}), cancelThenAccept, session.NewStatic(nil), testConfig(1), rec)
	if res.State != types.RunStateSucceeded || res.Winner == nil || res.Winner.Value != "x" {
		t.Fatalf("result = %s/%v, want succeeded/x", res.State, res.Winner)
	}
	if state, winner, calls := rec.Terminal(); calls != 1 || state != types.RunStateSucceeded || winner.Value != "x" {
		t.Errorf("terminal = %s/%v/%d", state, winner, calls)
	}
	if rec.Count(types.OutcomeAccepted) != 1 {
		t.Errorf("accepted outcomes = %d, want 1", rec.Count(types.OutcomeAccepted))
	}
}
