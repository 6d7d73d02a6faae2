package oracle

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/pithecene-io/keyspace/types"
)

// ErrSimulatedFailure is the cause of injected transient failures.
var ErrSimulatedFailure = errors.New("simulated transient failure")

// SimulatedConfig configures an in-process oracle used to benchmark and
// tune the engine without touching any remote system.
type SimulatedConfig struct {
	// Target is the single accepted candidate value. Empty means every
	// candidate is rejected.
	Target string
	// Latency is the base per-probe delay.
	Latency time.Duration
	// Jitter adds a uniform random delay in [0, Jitter).
	Jitter time.Duration
	// TransientRate is the probability in [0, 1] that a probe fails
	// transiently.
	TransientRate float64
	// RequireSession rejects probes whose session is missing or expired
	// with a stale transient error.
	RequireSession bool
	// Seed seeds the random source for reproducible runs.
	Seed uint64
}

// Simulated is an Oracle backed by SimulatedConfig.
type Simulated struct {
	config SimulatedConfig
	now    func() time.Time

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSimulated validates cfg and creates a simulated oracle.
func NewSimulated(cfg SimulatedConfig) (*Simulated, error) {
	if cfg.TransientRate < 0 || cfg.TransientRate > 1 {
		return nil, types.NewConfigurationError("oracle.transient_rate", "must be within [0, 1], got %g", cfg.TransientRate)
	}
	if cfg.Latency < 0 || cfg.Jitter < 0 {
		return nil, types.NewConfigurationError("oracle.latency", "latency and jitter must be >= 0")
	}
	return &Simulated{
		config: cfg,
		now:    time.Now,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Probe implements Oracle.
func (s *Simulated) Probe(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome {
	delay, fail := s.roll()

	if delay > 0 {
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return types.Transient(c, classifyTransportError(ctx.Err()))
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return types.Transient(c, classifyTransportError(err))
	}

	if s.config.RequireSession && !session.Valid(s.now()) {
		return types.Transient(c, &types.TransientProbeError{Cause: types.ErrStaleSession, Stale: true})
	}
	if fail {
		return types.Transient(c, ErrSimulatedFailure)
	}
	if s.config.Target != "" && c.Value == s.config.Target {
		return types.Accepted(c, []byte("accepted "+c.Label()))
	}
	return types.Rejected(c)
}

// roll draws the probe delay and transient decision under one lock.
func (s *Simulated) roll() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.config.Latency
	if s.config.Jitter > 0 {
		delay += time.Duration(s.rng.Int64N(int64(s.config.Jitter)))
	}
	fail := s.config.TransientRate > 0 && s.rng.Float64() < s.config.TransientRate
	return delay, fail
}

var _ Oracle = (*Simulated)(nil)
