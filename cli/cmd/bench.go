package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap/zapcore"

	"github.com/pithecene-io/keyspace/adapter"
	"github.com/pithecene-io/keyspace/adapter/redis"
	"github.com/pithecene-io/keyspace/adapter/webhook"
	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/checkpoint"
	"github.com/pithecene-io/keyspace/cli/config"
	"github.com/pithecene-io/keyspace/cli/render"
	"github.com/pithecene-io/keyspace/cli/tui"
	"github.com/pithecene-io/keyspace/iox"
	"github.com/pithecene-io/keyspace/lode"
	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/metrics"
	"github.com/pithecene-io/keyspace/oracle"
	"github.com/pithecene-io/keyspace/report"
	"github.com/pithecene-io/keyspace/runtime"
	"github.com/pithecene-io/keyspace/session"
	"github.com/pithecene-io/keyspace/types"
)

// Exit codes for bench.
const (
	exitSucceeded = 0
	exitExhausted = 1
	exitCancelled = 2
	exitFailed    = 3
)

// Bench defaults.
const (
	defaultCheckpointInterval = 10 * time.Second
	defaultSessionTTL         = time.Minute
	defaultFlushInterval      = 5 * time.Second
	sessionMinRefresh         = time.Second
	progressInterval          = 2 * time.Second
)

// BenchCommand returns the bench command. It drives the engine against the
// in-process simulated oracle to tune concurrency, retry and rate settings.
func BenchCommand() *cli.Command {
	flags := []cli.Flag{FormatFlag, NoColorFlag, TUIFlag}
	flags = append(flags, StrategyFlags()...)
	flags = append(flags,
		// Run identity
		&cli.StringFlag{Name: "run-id", Usage: "Run ID (default: random UUID)"},
		// Engine flags
		&cli.IntFlag{Name: "concurrency", Usage: "Worker count (bound on in-flight probes)"},
		&cli.IntFlag{Name: "max-retries", Usage: "Retries per candidate after transient failures"},
		&cli.Float64Flag{Name: "rate-limit", Usage: "Global probes per second (0 = unlimited)"},
		&cli.DurationFlag{Name: "per-worker-delay", Usage: "Pause between a worker's probes"},
		&cli.DurationFlag{Name: "probe-timeout", Usage: "Per-probe timeout"},
		&cli.IntFlag{Name: "stale-threshold", Usage: "Distinct transient failures within the stale window that signal a stale session (0 = off)"},
		// Simulated oracle flags
		&cli.StringFlag{Name: "target", Usage: "Value the simulated oracle accepts (empty: none)"},
		&cli.DurationFlag{Name: "latency", Usage: "Simulated per-probe latency"},
		&cli.DurationFlag{Name: "jitter", Usage: "Simulated latency jitter"},
		&cli.Float64Flag{Name: "transient-rate", Usage: "Probability of a simulated transient failure"},
		&cli.BoolFlag{Name: "require-session", Usage: "Simulated oracle rejects missing or expired sessions"},
		&cli.Uint64Flag{Name: "seed", Usage: "Random seed for the simulated oracle"},
		// Checkpoint flags
		&cli.StringFlag{Name: "checkpoint", Usage: "Checkpoint file path"},
		&cli.BoolFlag{Name: "resume", Usage: "Resume from the checkpoint file"},
		// Output flags
		&cli.BoolFlag{Name: "show-winner", Usage: "Print and store the accepted value instead of redacting it"},
		&cli.BoolFlag{Name: "quiet", Usage: "Suppress result output"},
		&cli.StringFlag{Name: "log-level", Usage: "Log level: debug, info, warn, error", Value: "info"},
	)
	flags = append(flags, storageFlags()...)

	return &cli.Command{
		Name:   "bench",
		Usage:  "Run a search against the simulated oracle",
		Flags:  flags,
		Action: benchAction,
	}
}

// BenchResponse is the rendered result of a bench run.
type BenchResponse struct {
	RunID        string              `json:"run_id" yaml:"run_id"`
	State        string              `json:"state" yaml:"state"`
	Reason       string              `json:"reason" yaml:"reason"`
	Winner       string              `json:"winner,omitempty" yaml:"winner,omitempty"`
	WinnerSeq    *int64              `json:"winner_seq,omitempty" yaml:"winner_seq,omitempty"`
	Attempts     int64               `json:"attempts" yaml:"attempts"`
	Counts       types.OutcomeCounts `json:"counts" yaml:"counts"`
	KeyspaceSize int64               `json:"keyspace_size" yaml:"keyspace_size"`
	Elapsed      string              `json:"elapsed" yaml:"elapsed"`
	Rate         float64             `json:"rate" yaml:"rate"`
	PeakInFlight int64               `json:"peak_in_flight" yaml:"peak_in_flight"`
	Retries      int64               `json:"retries" yaml:"retries"`
	StaleSignals int64               `json:"stale_signals" yaml:"stale_signals"`
	ResumeOffset int64               `json:"resume_offset" yaml:"resume_offset"`
}

// benchPlan holds everything resolved from config and flags before a run.
type benchPlan struct {
	runID      string
	strategy   candidate.Strategy
	engine     runtime.Config
	oracle     oracle.SimulatedConfig
	sessionTTL time.Duration
	storage    config.StorageConfig
	report     config.ReportConfig
	adapter    config.AdapterConfig
	checkpoint config.CheckpointConfig
	resume     bool
	showWinner bool
	logLevel   zapcore.Level
}

func benchAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}
	plan, err := resolveBenchPlan(c, cfg)
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	var r *render.Renderer
	if !c.Bool("quiet") {
		if r, err = render.NewRenderer(c); err != nil {
			return cli.Exit(err.Error(), exitFailed)
		}
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	resp, err := runBench(ctx, plan, c.Bool("tui"))
	if err != nil {
		return cli.Exit(err.Error(), exitFailed)
	}

	if r != nil {
		if err := r.Render(resp); err != nil {
			return err
		}
	}
	return cli.Exit("", exitCodeFor(types.RunState(resp.State)))
}

// resolveBenchPlan merges config and flags. CLI flags win.
func resolveBenchPlan(c *cli.Context, cfg *config.Config) (*benchPlan, error) {
	p := &benchPlan{
		runID:      c.String("run-id"),
		strategy:   strategyFromFlags(c, cfg.Strategy),
		engine:     cfg.Engine.RuntimeConfig(),
		oracle:     cfg.Oracle.SimulatedConfig(),
		sessionTTL: cfg.Oracle.SessionTTL.Duration,
		storage:    storageFromFlags(c, cfg.Storage),
		report:     cfg.Report,
		adapter:    cfg.Adapter,
		checkpoint: cfg.Checkpoint,
		resume:     c.Bool("resume"),
		showWinner: c.Bool("show-winner") || cfg.Report.ShowWinner,
	}
	if p.runID == "" {
		p.runID = uuid.NewString()
	}

	if c.IsSet("concurrency") {
		p.engine.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("max-retries") {
		p.engine.MaxRetries = c.Int("max-retries")
	}
	if c.IsSet("rate-limit") {
		p.engine.RateLimit = c.Float64("rate-limit")
	}
	if c.IsSet("per-worker-delay") {
		p.engine.PerWorkerDelay = c.Duration("per-worker-delay")
	}
	if c.IsSet("probe-timeout") {
		p.engine.ProbeTimeout = c.Duration("probe-timeout")
	}
	if c.IsSet("stale-threshold") {
		p.engine.StaleBurstThreshold = c.Int("stale-threshold")
	}
	p.engine.RunID = p.runID

	if c.IsSet("target") {
		p.oracle.Target = c.String("target")
	}
	if c.IsSet("latency") {
		p.oracle.Latency = c.Duration("latency")
	}
	if c.IsSet("jitter") {
		p.oracle.Jitter = c.Duration("jitter")
	}
	if c.IsSet("transient-rate") {
		p.oracle.TransientRate = c.Float64("transient-rate")
	}
	if c.IsSet("require-session") {
		p.oracle.RequireSession = c.Bool("require-session")
	}
	if c.IsSet("seed") {
		p.oracle.Seed = c.Uint64("seed")
	}
	if p.sessionTTL <= 0 {
		p.sessionTTL = defaultSessionTTL
	}

	if c.IsSet("checkpoint") {
		p.checkpoint.Path = c.String("checkpoint")
	}
	if p.checkpoint.Interval.Duration <= 0 {
		p.checkpoint.Interval.Duration = defaultCheckpointInterval
	}
	if p.resume && p.checkpoint.Path == "" {
		return nil, errors.New("--resume requires --checkpoint (or checkpoint.path in config)")
	}

	level, err := zapcore.ParseLevel(c.String("log-level"))
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	p.logLevel = level

	return p, nil
}

// runBench executes one search described by p. Errors are setup failures;
// a failed search is reported through the response state.
func runBench(ctx context.Context, p *benchPlan, live bool) (*BenchResponse, error) {
	logger := log.NewLoggerWithWriter(log.RunContext{RunID: p.runID, Strategy: p.strategy.Kind}, os.Stderr, p.logLevel)
	defer func() { _ = logger.Sync() }()

	startTime := time.Now()
	fingerprint := p.strategy.Fingerprint()

	if p.resume {
		offset, err := checkpoint.ResumeOffset(p.checkpoint.Path, fingerprint)
		if err != nil {
			return nil, fmt.Errorf("cannot resume: %w", err)
		}
		p.strategy.Offset = offset
		logger.Info("resuming from checkpoint", map[string]any{"offset": offset, "path": p.checkpoint.Path})
	}

	meter := metrics.NewMeter(p.runID, p.strategy.Kind)
	watermark := candidate.NewWatermark(p.strategy.Offset)
	p.engine.Logger = logger
	p.engine.Meter = meter
	p.engine.Watermark = watermark

	// Strategy and oracle problems still go through the engine so that the
	// run ends Failed with reporters notified.
	var source candidate.Source
	var setupErr error
	source, setupErr = candidate.Build(p.strategy)
	o, err := oracle.NewSimulated(p.oracle)
	if err != nil && setupErr == nil {
		setupErr = err
	}

	provider, closeProvider, err := buildProvider(ctx, p, logger)
	if err != nil {
		return nil, err
	}
	defer closeProvider()

	partition := lode.Config{
		Strategy: p.strategy.Kind,
		Day:      lode.DeriveDay(startTime),
		RunID:    p.runID,
	}
	client, err := buildWriteClient(ctx, p.storage, partition)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	if client != nil {
		partition = client.Config()
	}

	reporters, cleanup, err := buildReporters(p, client, partition, meter, logger)
	if err != nil {
		return nil, err
	}
	defer cleanup.closeAll(logger)

	stopSamplers := startSamplers(p, meter, watermark, fingerprint, live, logger)

	var res *types.RunResult
	if setupErr != nil {
		res = runtime.Start(ctx, nil, nil, provider, p.engine, reporters)
		res.Err = setupErr
		res.Reason = types.DescribeTerminal(types.RunStateFailed, nil, 0, setupErr)
	} else {
		res = runtime.Start(ctx, source, o, provider, p.engine, reporters)
	}
	cleanup.drain()

	snap := meter.Snapshot()
	stopSamplers(snap, res)

	var keyspaceSize int64
	if source != nil {
		keyspaceSize = source.Size()
	}

	if client != nil {
		summary := lode.NewSummaryRecord(res, partition, p.showWinner, time.Now())
		summary.KeyspaceSize = keyspaceSize
		summary.Concurrency = p.engine.Concurrency
		summary.Fingerprint = fingerprint
		if err := client.WriteSummary(ctx, summary); err != nil {
			logger.Error("failed to write run summary", map[string]any{"error": err.Error()})
		}
	}

	if p.checkpoint.Path != "" && res.State != types.RunStateFailed {
		saveCheckpoint(p, watermark, fingerprint, res.Attempts, res.State, logger)
	}

	return newBenchResponse(res, snap, keyspaceSize, watermark.Low(), p.showWinner), nil
}

// buildProvider returns the session provider for the simulated oracle.
// Sessions are only issued when the oracle requires one.
func buildProvider(ctx context.Context, p *benchPlan, logger *log.Logger) (session.Provider, func(), error) {
	if !p.oracle.RequireSession {
		return session.NewStatic(nil), func() {}, nil
	}
	ttl := p.sessionTTL
	refreshing, err := session.NewRefreshing(ctx, session.RefreshingConfig{
		Refresher: func(context.Context) (*types.SessionContext, error) {
			return types.NewSessionContext(uuid.NewString(), nil, time.Now(), ttl), nil
		},
		MinInterval: sessionMinRefresh,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to issue session: %w", err)
	}
	return refreshing, func() { _ = refreshing.Close() }, nil
}

// reporterSet tracks reporters that need draining and closing after a run.
type reporterSet struct {
	async  *report.Async
	store  *report.StoreReporter
	notify adapter.Adapter
}

// drain waits for queued log events.
func (s *reporterSet) drain() {
	if s.async != nil {
		_ = s.async.Close()
	}
}

func (s *reporterSet) closeAll(logger *log.Logger) {
	s.drain()
	var closers []io.Closer
	if s.store != nil {
		closers = append(closers, s.store)
	}
	if s.notify != nil {
		closers = append(closers, s.notify)
	}
	if err := iox.CloseAll(closers...); err != nil {
		logger.Error("reporter close failed", map[string]any{"error": err.Error()})
	}

	if s.store != nil {
		stats := s.store.Stats()
		logger.Info("storage stats", map[string]any{
			"received":  stats.Received,
			"persisted": stats.Persisted,
			"dropped":   stats.Dropped,
			"errors":    stats.Errors,
		})
	}
}

func buildReporters(p *benchPlan, client *lode.LodeClient, partition lode.Config, meter *metrics.Meter, logger *log.Logger) (report.Reporter, *reporterSet, error) {
	set := &reporterSet{}
	set.async = report.NewAsync(report.NewLogReporter(logger, p.showWinner), 0)
	reporters := []report.Reporter{set.async}

	if client != nil {
		kinds := make([]types.OutcomeKind, 0, len(p.report.Kinds))
		for _, k := range p.report.Kinds {
			kinds = append(kinds, types.OutcomeKind(k))
		}
		flushInterval := p.report.FlushInterval.Duration
		if p.report.FlushCount <= 0 && flushInterval <= 0 {
			flushInterval = defaultFlushInterval
		}
		store, err := report.NewStoreReporter(client, report.StoreConfig{
			Partition:     partition,
			FlushCount:    p.report.FlushCount,
			FlushInterval: flushInterval,
			Kinds:         kinds,
			Logger:        logger,
			Meter:         meter,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create store reporter: %w", err)
		}
		set.store = store
		reporters = append(reporters, store)
	}

	if p.adapter.Type != "" {
		a, err := buildAdapter(p.adapter)
		if err != nil {
			return nil, nil, err
		}
		set.notify = a
		meta := adapter.EventMeta{
			RunID:       p.runID,
			Strategy:    p.strategy.Kind,
			Day:         partition.Day,
			StoragePath: storageURI(p.storage),
		}
		reporters = append(reporters, adapter.NewNotifyReporter(a, meta, p.adapter.Timeout.Duration, logger))
	}

	return report.NewMulti(reporters...), set, nil
}

// buildAdapter constructs the configured completion adapter.
func buildAdapter(cfg config.AdapterConfig) (adapter.Adapter, error) {
	switch cfg.Type {
	case "webhook":
		wc := webhook.Config{URL: cfg.URL, Headers: cfg.Headers, Timeout: cfg.Timeout.Duration, Retries: webhook.DefaultRetries}
		if cfg.Retries != nil {
			wc.Retries = *cfg.Retries
		}
		return webhook.New(wc)
	case "redis":
		rc := redis.Config{URL: cfg.URL, Channel: cfg.Channel, Timeout: cfg.Timeout.Duration, Retries: redis.DefaultRetries}
		if cfg.Retries != nil {
			rc.Retries = *cfg.Retries
		}
		return redis.New(rc)
	default:
		return nil, fmt.Errorf("unknown adapter type: %s (must be webhook or redis)", cfg.Type)
	}
}

// startSamplers starts progress reporting and periodic checkpoints. The
// returned func stops them and renders the final live frame.
func startSamplers(p *benchPlan, meter *metrics.Meter, watermark *candidate.Watermark, fingerprint string, live bool, logger *log.Logger) func(metrics.Snapshot, *types.RunResult) {
	var samplers []*metrics.Sampler
	var view *tui.Live

	if live {
		view = tui.StartLive(p.runID, p.strategy.Kind)
		samplers = append(samplers, metrics.NewSampler(meter, 200*time.Millisecond, view.Update))
	} else if isStderrTTY() {
		samplers = append(samplers, metrics.NewSampler(meter, progressInterval, func(s metrics.Snapshot) {
			logger.Info("progress", map[string]any{
				"attempts":  s.Attempts,
				"rate":      s.Rate,
				"in_flight": s.InFlight,
				"transient": s.Transient,
			})
		}))
	}

	if p.checkpoint.Path != "" {
		samplers = append(samplers, metrics.NewSampler(meter, p.checkpoint.Interval.Duration, func(s metrics.Snapshot) {
			saveCheckpoint(p, watermark, fingerprint, s.Attempts, types.RunStateRunning, logger)
		}))
	}

	return func(final metrics.Snapshot, res *types.RunResult) {
		for _, s := range samplers {
			s.Stop()
		}
		if view != nil {
			if err := view.Finish(final, string(res.State), res.Reason); err != nil {
				logger.Warn("tui exited with error", map[string]any{"error": err.Error()})
			}
		}
	}
}

func saveCheckpoint(p *benchPlan, watermark *candidate.Watermark, fingerprint string, attempts int64, state types.RunState, logger *log.Logger) {
	cp := checkpoint.Checkpoint{
		RunID:       p.runID,
		Fingerprint: fingerprint,
		Offset:      watermark.Low(),
		Attempts:    attempts,
		State:       string(state),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := checkpoint.Save(p.checkpoint.Path, cp); err != nil {
		logger.Warn("checkpoint save failed", map[string]any{"path": p.checkpoint.Path, "error": err.Error()})
	}
}

func newBenchResponse(res *types.RunResult, snap metrics.Snapshot, keyspaceSize, resumeOffset int64, showWinner bool) *BenchResponse {
	resp := &BenchResponse{
		RunID:        res.RunID,
		State:        string(res.State),
		Reason:       res.Reason,
		Attempts:     res.Attempts,
		Counts:       res.Counts,
		KeyspaceSize: keyspaceSize,
		Elapsed:      res.Elapsed.Round(time.Millisecond).String(),
		Rate:         snap.Rate,
		PeakInFlight: snap.PeakInFlight,
		Retries:      snap.Retries,
		StaleSignals: snap.StaleSignals,
		ResumeOffset: resumeOffset,
	}
	if res.Winner != nil {
		seq := res.Winner.Seq
		resp.WinnerSeq = &seq
		resp.Winner = report.RedactedValue
		if showWinner {
			resp.Winner = res.Winner.Value
		}
	}
	return resp
}

// exitCodeFor maps a terminal run state to the bench exit code.
func exitCodeFor(state types.RunState) int {
	switch state {
	case types.RunStateSucceeded:
		return exitSucceeded
	case types.RunStateExhausted:
		return exitExhausted
	case types.RunStateCancelled:
		return exitCancelled
	default:
		return exitFailed
	}
}
