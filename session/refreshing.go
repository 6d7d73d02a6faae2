package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/types"
)

// DefaultRefreshTimeout bounds a single refresh call.
const DefaultRefreshTimeout = 30 * time.Second

// Refresher acquires a fresh session snapshot (e.g. by fetching a login
// page and extracting its tokens).
type Refresher func(ctx context.Context) (*types.SessionContext, error)

// RefreshingConfig configures a Refreshing provider.
type RefreshingConfig struct {
	// Refresher acquires new snapshots (required).
	Refresher Refresher
	// MinInterval is the minimum time between two refreshes triggered by
	// stale signals. Zero allows back-to-back refreshes.
	MinInterval time.Duration
	// Timeout bounds each refresh call (default 30s).
	Timeout time.Duration
	// Logger is optional.
	Logger *log.Logger
}

// Refreshing holds the current snapshot in an atomic pointer and refreshes
// it in the background when the engine signals staleness. At most one
// refresh runs at a time; signals arriving during a refresh are dropped.
type Refreshing struct {
	config RefreshingConfig
	logger *log.Logger

	current     atomic.Pointer[types.SessionContext]
	refreshing  atomic.Bool
	lastRefresh atomic.Int64 // unix nanos of the last completed refresh

	refreshes atomic.Int64
	failures  atomic.Int64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders wg.Add against Close.
	mu     sync.Mutex
	closed bool
}

// NewRefreshing creates the provider and performs the initial refresh
// synchronously. The returned provider must be closed.
func NewRefreshing(ctx context.Context, cfg RefreshingConfig) (*Refreshing, error) {
	if cfg.Refresher == nil {
		return nil, types.NewConfigurationError("session.refresher", "required")
	}
	if cfg.MinInterval < 0 {
		return nil, types.NewConfigurationError("session.min_interval", "must be >= 0")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultRefreshTimeout
	}

	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	p := &Refreshing{
		config: cfg,
		logger: cfg.Logger,
		ctx:    bgCtx,
		cancel: cancel,
	}

	if err := p.Refresh(ctx); err != nil {
		cancel()
		return nil, fmt.Errorf("initial session refresh: %w", err)
	}
	return p, nil
}

// Current implements Provider.
func (p *Refreshing) Current() *types.SessionContext {
	return p.current.Load()
}

// OnStaleSignal implements Provider. It starts a background refresh unless
// one is already running or MinInterval has not elapsed.
func (p *Refreshing) OnStaleSignal() {
	if p.ctx.Err() != nil {
		return
	}
	last := time.Unix(0, p.lastRefresh.Load())
	if p.config.MinInterval > 0 && time.Since(last) < p.config.MinInterval {
		return
	}
	if !p.refreshing.CompareAndSwap(false, true) {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		p.refreshing.Store(false)
		return
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer p.refreshing.Store(false)

		if err := p.Refresh(p.ctx); err != nil {
			p.logger.Warn("session refresh failed", map[string]any{"error": err.Error()})
		}
	}()
}

// Refresh fetches a new snapshot synchronously and swaps it in.
// The previous snapshot stays current on failure.
func (p *Refreshing) Refresh(ctx context.Context) error {
	callCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
	defer cancel()

	next, err := p.config.Refresher(callCtx)
	if err == nil && next == nil {
		err = errors.New("refresher returned no session")
	}
	if err != nil {
		p.failures.Add(1)
		return err
	}

	p.current.Store(next)
	p.lastRefresh.Store(time.Now().UnixNano())
	p.refreshes.Add(1)
	p.logger.Info("session refreshed", map[string]any{"session_id": next.ID()})
	return nil
}

// Refreshes returns the number of successful refreshes, the initial one
// included.
func (p *Refreshing) Refreshes() int64 {
	return p.refreshes.Load()
}

// Failures returns the number of failed refresh attempts.
func (p *Refreshing) Failures() int64 {
	return p.failures.Load()
}

// Close stops background refreshes and waits for a running one to finish.
func (p *Refreshing) Close() error {
	p.mu.Lock()
	p.closed = true
	p.cancel()
	p.mu.Unlock()

	p.wg.Wait()
	return nil
}

var _ Provider = (*Refreshing)(nil)
