package report

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pithecene-io/keyspace/lode"
	"github.com/pithecene-io/keyspace/log"
	"github.com/pithecene-io/keyspace/metrics"
	"github.com/pithecene-io/keyspace/types"
)

// StoreConfig configures a StoreReporter.
type StoreConfig struct {
	// Partition supplies run_id, strategy and day for every record.
	Partition lode.Config

	// FlushCount triggers a flush after N outcomes accumulate.
	// Zero means count-based flush is disabled.
	FlushCount int

	// FlushInterval triggers a flush every interval.
	// Zero means interval-based flush is disabled.
	FlushInterval time.Duration

	// MaxBuffer bounds the records kept across failed flushes. When a
	// failed batch is restored past this bound the oldest records are
	// dropped. Zero means 10000.
	MaxBuffer int

	// WriteTimeout bounds each store write. Zero means 30s.
	WriteTimeout time.Duration

	// Kinds restricts which outcome kinds are stored. Empty stores all.
	Kinds []types.OutcomeKind

	// Logger is optional.
	Logger *log.Logger
	// Meter, when set, counts store write successes and failures.
	Meter *metrics.Meter
}

// FlushTrigger identifies which trigger caused a flush.
type FlushTrigger string

const (
	// FlushTriggerCount indicates a count-threshold flush.
	FlushTriggerCount FlushTrigger = "count"
	// FlushTriggerInterval indicates an interval-based flush.
	FlushTriggerInterval FlushTrigger = "interval"
	// FlushTriggerTermination indicates the run-terminal flush.
	FlushTriggerTermination FlushTrigger = "termination"
)

// ErrStoreInvalidConfig is returned when StoreConfig is invalid.
var ErrStoreInvalidConfig = errors.New("invalid store reporter config: at least one of FlushCount or FlushInterval must be set")

// StoreStats is a point-in-time view of a StoreReporter.
type StoreStats struct {
	Received  int64
	Persisted int64
	Dropped   int64
	Errors    int64
	Flushes   map[FlushTrigger]int64
	Buffered  int
}

// StoreReporter batches outcome records and writes them to a lode.Client.
//
// Records accumulate in memory and are flushed when the count threshold is
// reached, on every interval tick, and once more on OnTerminal. A failed
// flush keeps its batch for the next trigger. Write errors are counted and
// logged, never returned to the engine.
//
// mu guards the buffer and stats; flushMu serializes writes so the interval
// goroutine and a count trigger never write concurrently. The buffer is
// swapped out under mu and written outside it.
type StoreReporter struct {
	client lode.Client
	config StoreConfig
	logger *log.Logger
	kinds  map[types.OutcomeKind]bool
	now    func() time.Time

	mu        sync.Mutex
	buffer    []lode.OutcomeRecord
	received  int64
	persisted int64
	dropped   int64
	errors    int64
	flushes   map[FlushTrigger]int64

	flushMu sync.Mutex

	stopCh  chan struct{}
	stopped bool
	loopWG  sync.WaitGroup
}

// NewStoreReporter creates a StoreReporter writing through client.
func NewStoreReporter(client lode.Client, config StoreConfig) (*StoreReporter, error) {
	if config.FlushCount <= 0 && config.FlushInterval <= 0 {
		return nil, ErrStoreInvalidConfig
	}
	if config.MaxBuffer <= 0 {
		config.MaxBuffer = 10000
	}
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = 30 * time.Second
	}

	r := &StoreReporter{
		client:  client,
		config:  config,
		logger:  config.Logger,
		now:     time.Now,
		buffer:  make([]lode.OutcomeRecord, 0, 128),
		flushes: make(map[FlushTrigger]int64),
		stopCh:  make(chan struct{}),
	}
	if len(config.Kinds) > 0 {
		r.kinds = make(map[types.OutcomeKind]bool, len(config.Kinds))
		for _, k := range config.Kinds {
			r.kinds[k] = true
		}
	}

	if config.FlushInterval > 0 {
		r.loopWG.Add(1)
		go r.intervalLoop()
	}
	return r, nil
}

// OnOutcome implements Reporter.
func (r *StoreReporter) OnOutcome(o types.Outcome) {
	if r.kinds != nil && !r.kinds[o.Kind] {
		return
	}

	rec := lode.NewOutcomeRecord(o, r.config.Partition, r.now())

	r.mu.Lock()
	r.received++
	r.buffer = append(r.buffer, rec)
	shouldFlush := r.config.FlushCount > 0 && len(r.buffer) >= r.config.FlushCount
	r.mu.Unlock()

	if shouldFlush {
		_ = r.triggerFlush(FlushTriggerCount)
	}
}

// OnTerminal implements Reporter. It stops the interval loop and flushes
// what remains.
func (r *StoreReporter) OnTerminal(types.RunState, *types.Candidate) {
	r.stop()
	_ = r.triggerFlush(FlushTriggerTermination)
}

// Flush writes buffered records now.
func (r *StoreReporter) Flush() error {
	return r.triggerFlush(FlushTriggerTermination)
}

func (r *StoreReporter) triggerFlush(trigger FlushTrigger) error {
	r.flushMu.Lock()
	defer r.flushMu.Unlock()

	r.mu.Lock()
	r.flushes[trigger]++
	batch := r.buffer
	if len(batch) == 0 {
		r.mu.Unlock()
		return nil
	}
	r.buffer = make([]lode.OutcomeRecord, 0, 128)
	r.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), r.config.WriteTimeout)
	defer cancel()

	if err := r.client.WriteOutcomes(ctx, batch); err != nil {
		r.config.Meter.IncStoreWriteFailure()

		// Restore ahead of anything appended during the write.
		r.mu.Lock()
		r.errors++
		r.buffer = append(batch, r.buffer...)
		if over := len(r.buffer) - r.config.MaxBuffer; over > 0 {
			r.buffer = r.buffer[over:]
			r.dropped += int64(over)
		}
		r.mu.Unlock()

		r.logger.Error("outcome flush failed", map[string]any{
			"trigger": string(trigger),
			"records": len(batch),
			"error":   err.Error(),
		})
		return err
	}

	r.config.Meter.IncStoreWriteSuccess()
	r.mu.Lock()
	r.persisted += int64(len(batch))
	r.mu.Unlock()

	r.logger.Debug("outcome flush", map[string]any{
		"trigger": string(trigger),
		"records": len(batch),
	})
	return nil
}

// Stats returns a snapshot of the reporter's counters.
func (r *StoreReporter) Stats() StoreStats {
	r.mu.Lock()
	defer r.mu.Unlock()

	flushes := make(map[FlushTrigger]int64, len(r.flushes))
	for k, v := range r.flushes {
		flushes[k] = v
	}
	return StoreStats{
		Received:  r.received,
		Persisted: r.persisted,
		Dropped:   r.dropped,
		Errors:    r.errors,
		Flushes:   flushes,
		Buffered:  len(r.buffer),
	}
}

// Close stops the interval loop, flushes, and closes the client.
func (r *StoreReporter) Close() error {
	r.stop()
	flushErr := r.triggerFlush(FlushTriggerTermination)
	return errors.Join(flushErr, r.client.Close())
}

func (r *StoreReporter) stop() {
	r.mu.Lock()
	if !r.stopped {
		r.stopped = true
		close(r.stopCh)
	}
	r.mu.Unlock()
	r.loopWG.Wait()
}

func (r *StoreReporter) intervalLoop() {
	defer r.loopWG.Done()

	ticker := time.NewTicker(r.config.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.mu.Lock()
			hasData := len(r.buffer) > 0
			r.mu.Unlock()

			if hasData {
				_ = r.triggerFlush(FlushTriggerInterval)
			}
		case <-r.stopCh:
			return
		}
	}
}

var _ Reporter = (*StoreReporter)(nil)
