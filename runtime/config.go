package runtime

import (
	"context"
	"time"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/metrics"
	"github.com/pithecene-io/keyspace/types"
)

// Default configuration values.
const (
	DefaultConcurrency  = 10
	DefaultMaxRetries   = 3
	DefaultBackoffBase  = 100 * time.Millisecond
	DefaultBackoffCap   = 5 * time.Second
	DefaultProbeTimeout = 10 * time.Second
	DefaultStaleWindow  = 10 * time.Second
)

// Config configures a Scheduler. Start from DefaultConfig; the zero value
// is not valid (Concurrency must be at least 1).
type Config struct {
	// RunID identifies the run. Empty generates a UUID.
	RunID string

	// Concurrency is the number of workers, and so the bound on in-flight
	// probes.
	Concurrency int
	// MaxRetries is how many times a candidate is re-probed after transient
	// failures before it is given up. Zero disables retries.
	MaxRetries int
	// BackoffBase and BackoffCap shape the retry delay:
	// min(BackoffBase * 2^(attempt-1), BackoffCap).
	BackoffBase time.Duration
	BackoffCap  time.Duration

	// RateLimit is the global probe rate in probes per second, shared by all
	// workers. Zero is unlimited.
	RateLimit float64
	// PerWorkerDelay is the pause between a worker's consecutive probes.
	PerWorkerDelay time.Duration
	// ProbeTimeout bounds each oracle call. Zero disables the timeout.
	ProbeTimeout time.Duration

	// StaleBurstThreshold is the number of distinct candidates failing
	// transiently within StaleWindow that triggers a stale-session signal.
	// Zero disables the signal.
	StaleBurstThreshold int
	StaleWindow         time.Duration

	// Watermark, when set, tracks dispatched bulk ordinals for resume.
	Watermark *candidate.Watermark
	// Logger is optional.
	Logger *log.Logger
	// Meter is optional; it never influences scheduling.
	Meter *metrics.Meter

	// Now and Sleep replace the wall clock in tests. Sleep must return
	// ctx.Err() when ctx ends first.
	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Concurrency:  DefaultConcurrency,
		MaxRetries:   DefaultMaxRetries,
		BackoffBase:  DefaultBackoffBase,
		BackoffCap:   DefaultBackoffCap,
		ProbeTimeout: DefaultProbeTimeout,
		StaleWindow:  DefaultStaleWindow,
	}
}

// Validate reports the first invalid field as a *types.ConfigurationError.
func (c Config) Validate() error {
	switch {
	case c.Concurrency < 1:
		return types.NewConfigurationError("concurrency", "must be >= 1, got %d", c.Concurrency)
	case c.MaxRetries < 0:
		return types.NewConfigurationError("max_retries", "must be >= 0, got %d", c.MaxRetries)
	case c.BackoffBase < 0:
		return types.NewConfigurationError("backoff_base", "must be >= 0, got %s", c.BackoffBase)
	case c.BackoffCap < c.BackoffBase:
		return types.NewConfigurationError("backoff_cap", "must be >= backoff_base (%s), got %s", c.BackoffBase, c.BackoffCap)
	case c.RateLimit < 0:
		return types.NewConfigurationError("rate_limit", "must be >= 0, got %g", c.RateLimit)
	case c.PerWorkerDelay < 0:
		return types.NewConfigurationError("per_worker_delay", "must be >= 0, got %s", c.PerWorkerDelay)
	case c.ProbeTimeout < 0:
		return types.NewConfigurationError("probe_timeout", "must be >= 0, got %s", c.ProbeTimeout)
	case c.StaleBurstThreshold < 0:
		return types.NewConfigurationError("stale_burst_threshold", "must be >= 0, got %d", c.StaleBurstThreshold)
	case c.StaleBurstThreshold > 0 && c.StaleWindow <= 0:
		return types.NewConfigurationError("stale_window", "must be > 0 when stale_burst_threshold is set")
	}
	return nil
}

// backoff returns the delay before retry number attempt (1-based).
func (c Config) backoff(attempt int) time.Duration {
	if attempt < 1 || c.BackoffBase <= 0 {
		return 0
	}
	d := c.BackoffBase
	for i := 1; i < attempt; i++ {
		if d >= c.BackoffCap/2 {
			return c.BackoffCap
		}
		d *= 2
	}
	return min(d, c.BackoffCap)
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) sleep(ctx context.Context, d time.Duration) error {
	if c.Sleep != nil {
		return c.Sleep(ctx, d)
	}
	return sleepContext(ctx, d)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
