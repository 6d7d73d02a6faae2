// Package runtime runs keyspace searches: a bounded pool of workers pulls
// candidates, probes them against an oracle, retries transient failures
// with backoff, and stops at the first accepted candidate.
package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/oracle"
	"github.com/pithecene-io/keyspace/report"
	"github.com/pithecene-io/keyspace/session"
	"github.com/pithecene-io/keyspace/types"
)

// errUnknownOutcome marks an oracle outcome with an unrecognized kind.
var errUnknownOutcome = errors.New("oracle returned unknown outcome kind")

// Scheduler executes searches with a fixed configuration.
// A Scheduler may run any number of searches, one at a time or concurrently.
type Scheduler struct {
	config Config
}

// New creates a Scheduler. The configuration is validated by Run so that an
// invalid one still produces a Failed result.
func New(config Config) *Scheduler {
	return &Scheduler{config: config}
}

// Start runs a single search with cfg. It is shorthand for New(cfg).Run.
func Start(ctx context.Context, source candidate.Source, o oracle.Oracle, provider session.Provider, cfg Config, reporter report.Reporter) *types.RunResult {
	return New(cfg).Run(ctx, source, o, provider, reporter)
}

// run holds the state of a single search.
type run struct {
	config   Config
	id       string
	source   candidate.Source
	oracle   oracle.Oracle
	provider session.Provider
	reporter report.Reporter
	logger   *log.Logger
	limiter  *rate.Limiter
	stale    *staleDetector
	dispatch *dispatcher

	// callerCtx is the caller's context; its cancellation means Cancelled.
	callerCtx context.Context
	// stop ends the run context once a winner is found.
	stop context.CancelFunc

	found    atomic.Bool
	winnerMu sync.Mutex
	winner   *types.Candidate
	evidence []byte

	attempts  atomic.Int64
	accepted  atomic.Int64
	rejected  atomic.Int64
	transient atomic.Int64
	gaveUp    atomic.Int64
	discarded atomic.Int64
}

// Run searches source until a candidate is accepted, the source and all
// retries are exhausted, ctx is cancelled, or the configuration is invalid.
// It returns only after every worker has exited, and calls
// reporter.OnTerminal exactly once before returning. A nil reporter is
// allowed.
func (s *Scheduler) Run(ctx context.Context, source candidate.Source, o oracle.Oracle, provider session.Provider, reporter report.Reporter) *types.RunResult {
	cfg := s.config
	if reporter == nil {
		reporter = report.Nop{}
	}

	runID := cfg.RunID
	if runID == "" {
		runID = uuid.New().String()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}

	start := cfg.now()
	state := types.RunStateIdle

	if err := validate(cfg, source, o, provider); err != nil {
		logger.Error("run rejected", map[string]any{"run_id": runID, "error": err.Error()})
		reporter.OnTerminal(types.RunStateFailed, nil)
		return &types.RunResult{
			RunID:   runID,
			State:   types.RunStateFailed,
			Elapsed: cfg.now().Sub(start),
			Reason:  types.DescribeTerminal(types.RunStateFailed, nil, 0, err),
			Err:     err,
		}
	}

	runCtx, stop := context.WithCancel(ctx)
	defer stop()

	r := &run{
		config:    cfg,
		id:        runID,
		source:    source,
		oracle:    o,
		provider:  provider,
		reporter:  reporter,
		logger:    logger,
		stale:     newStaleDetector(cfg.StaleBurstThreshold, cfg.StaleWindow),
		dispatch:  newDispatcher(source, cfg.now, cfg.sleep),
		callerCtx: ctx,
		stop:      stop,
	}
	if cfg.RateLimit > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), 1)
	}

	state = transition(state, types.RunStateRunning)
	cfg.Meter.Start()
	logger.Info("run started", map[string]any{
		"run_id":        runID,
		"concurrency":   cfg.Concurrency,
		"keyspace_size": source.Size(),
		"max_retries":   cfg.MaxRetries,
		"rate_limit":    cfg.RateLimit,
	})

	g, gctx := errgroup.WithContext(runCtx)
	for i := range cfg.Concurrency {
		g.Go(func() error {
			r.work(gctx, i)
			return nil
		})
	}
	_ = g.Wait()
	cfg.Meter.Stop()

	drained, sourceErr := r.dispatch.state()
	r.winnerMu.Lock()
	winner, evidence := r.winner, r.evidence
	r.winnerMu.Unlock()

	var runErr error
	switch {
	case winner != nil:
		state = transition(state, types.RunStateSucceeded)
	case sourceErr != nil:
		runErr = fmt.Errorf("candidate source: %w", sourceErr)
		state = transition(state, types.RunStateFailed)
	case drained:
		state = transition(state, types.RunStateExhausted)
	default:
		runErr = context.Cause(ctx)
		state = transition(state, types.RunStateCancelled)
	}

	result := &types.RunResult{
		RunID:    runID,
		State:    state,
		Winner:   winner,
		Evidence: evidence,
		Attempts: r.attempts.Load(),
		Elapsed:  cfg.now().Sub(start),
		Counts: types.OutcomeCounts{
			Accepted:  r.accepted.Load(),
			Rejected:  r.rejected.Load(),
			Transient: r.transient.Load(),
			GaveUp:    r.gaveUp.Load(),
			Discarded: r.discarded.Load(),
		},
		Err: runErr,
	}
	result.Reason = types.DescribeTerminal(state, winner, result.Attempts, runErr)

	logger.Info("run finished", map[string]any{
		"run_id":          runID,
		"state":           string(state),
		"attempts":        result.Attempts,
		"elapsed_ms":      result.Elapsed.Milliseconds(),
		"pending_retries": r.dispatch.pending(),
		"discarded":       result.Counts.Discarded,
		"terminal_reason": result.Reason,
	})
	reporter.OnTerminal(state, winner)
	return result
}

func validate(cfg Config, source candidate.Source, o oracle.Oracle, provider session.Provider) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	switch {
	case source == nil:
		return types.NewConfigurationError("source", "required")
	case o == nil:
		return types.NewConfigurationError("oracle", "required")
	case provider == nil:
		return types.NewConfigurationError("session", "provider required")
	}
	return nil
}

// transition moves between run states. Invalid transitions are programming
// errors.
func transition(from, to types.RunState) types.RunState {
	if !from.CanTransition(to) {
		panic(fmt.Sprintf("runtime: invalid run state transition %s -> %s", from, to))
	}
	return to
}

// work is one worker's loop.
func (r *run) work(ctx context.Context, worker int) {
	probed := false
	for {
		if r.found.Load() {
			return
		}
		w, ok := r.dispatch.next(ctx)
		if !ok {
			return
		}
		if w.failures == 0 {
			r.config.Watermark.Dispatched(w.candidate.Seq)
		}

		if probed && r.config.PerWorkerDelay > 0 {
			if err := r.config.sleep(ctx, r.config.PerWorkerDelay); err != nil {
				r.dispatch.finish()
				return
			}
		}
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				r.dispatch.finish()
				return
			}
		}
		if ctx.Err() != nil || r.found.Load() {
			r.dispatch.finish()
			return
		}

		probed = true
		out := r.probe(ctx, w)
		r.handle(w, out, worker)
		r.dispatch.finish()
	}
}

// probe performs one oracle call and normalizes its outcome.
func (r *run) probe(ctx context.Context, w work) (out types.Outcome) {
	c := w.candidate
	attempt := w.failures + 1

	defer func() {
		out.Candidate = c
		out.Attempt = attempt
	}()

	sess := r.provider.Current()
	if sess != nil && !sess.Valid(r.config.now()) {
		return types.Transient(c, &types.TransientProbeError{Cause: types.ErrStaleSession, Stale: true})
	}

	callCtx := ctx
	if r.config.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.config.ProbeTimeout)
		defer cancel()
	}

	r.attempts.Add(1)
	r.config.Meter.ProbeStarted()
	defer r.config.Meter.ProbeFinished()

	out = r.call(callCtx, c, sess)

	switch out.Kind {
	case types.OutcomeAccepted, types.OutcomeRejected, types.OutcomeGaveUp:
	case types.OutcomeTransient:
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) && !errors.Is(out.Cause, types.ErrProbeTimeout) {
			out.Cause = fmt.Errorf("%w: %w", types.ErrProbeTimeout, out.Cause)
		}
	default:
		out = types.Transient(c, fmt.Errorf("%w: %q", errUnknownOutcome, out.Kind))
	}
	return out
}

// call invokes the oracle, turning a panic into a transient outcome.
func (r *run) call(ctx context.Context, c types.Candidate, sess *types.SessionContext) (out types.Outcome) {
	defer func() {
		if p := recover(); p != nil {
			out = types.Transient(c, fmt.Errorf("oracle panic: %v", p))
		}
	}()
	return r.oracle.Probe(ctx, c, sess)
}

// handle records an outcome and decides what happens to the candidate next.
// An accepted outcome wins even when the caller cancelled while the probe
// was in flight.
func (r *run) handle(w work, out types.Outcome, worker int) {
	if out.Kind == types.OutcomeAccepted {
		if !r.found.CompareAndSwap(false, true) {
			r.discard()
			return
		}
		// Workers parked in a delay or the rate limiter must not go on to
		// probe a fresh candidate while the reporter runs.
		r.stop()

		winner := out.Candidate
		r.winnerMu.Lock()
		r.winner = &winner
		r.evidence = out.Evidence
		r.winnerMu.Unlock()

		r.accepted.Add(1)
		r.record(out)
		r.config.Watermark.Done(out.Candidate.Seq)
		r.logger.Debug("winner found", map[string]any{"worker": worker, "seq": winner.Seq})
		return
	}

	if r.callerCtx.Err() != nil || r.found.Load() {
		r.discard()
		return
	}

	switch out.Kind {
	case types.OutcomeRejected:
		r.rejected.Add(1)
		r.record(out)
		r.config.Watermark.Done(out.Candidate.Seq)

	case types.OutcomeGaveUp:
		r.gaveUp.Add(1)
		r.record(out)
		r.config.Watermark.Done(out.Candidate.Seq)

	case types.OutcomeTransient:
		r.transient.Add(1)
		r.record(out)
		r.observeTransient(out)

		w.failures++
		if w.failures > r.config.MaxRetries {
			r.gaveUp.Add(1)
			r.record(types.GaveUp(out.Candidate, out.Cause, out.Attempt))
			r.config.Watermark.Done(out.Candidate.Seq)
			return
		}
		w.due = r.config.now().Add(r.config.backoff(w.failures))
		r.config.Meter.IncRetries()
		r.dispatch.retry(w)
	}
}

func (r *run) record(out types.Outcome) {
	r.config.Meter.Record(string(out.Kind))
	r.reporter.OnOutcome(out)
}

func (r *run) discard() {
	r.discarded.Add(1)
	r.config.Meter.IncDiscarded()
}

func (r *run) observeTransient(out types.Outcome) {
	if !r.stale.observe(out.Candidate.Seq, r.config.now()) {
		return
	}
	r.config.Meter.IncStaleSignals()
	r.logger.Warn("transient failure burst, signalling stale session", map[string]any{
		"run_id":    r.id,
		"threshold": r.config.StaleBurstThreshold,
		"window_ms": r.config.StaleWindow.Milliseconds(),
	})
	r.provider.OnStaleSignal()
}
