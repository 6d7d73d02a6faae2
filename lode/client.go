package lode

import (
	"context"
	"errors"
	"sync"

	"github.com/justapithecus/lode/lode"
)

// Client abstracts outcome storage.
type Client interface {
	// WriteOutcomes writes a batch of outcome records in order.
	WriteOutcomes(ctx context.Context, records []OutcomeRecord) error

	// WriteSummary writes the run summary record.
	WriteSummary(ctx context.Context, summary SummaryRecord) error

	// Close releases client resources.
	Close() error
}

// ErrClientClosed is returned by writes after Close.
var ErrClientClosed = errors.New("lode client closed")

// LodeClient is a Lode-backed implementation of Client.
// Uses Lode's HiveLayout with partition keys strategy/day/run_id/record_kind.
type LodeClient struct {
	dataset lode.Dataset
	config  Config

	mu     sync.Mutex // serializes writes
	closed bool
}

// NewLodeClient creates a new Lode client with filesystem storage.
// The root parameter is the base directory for Hive-partitioned storage.
func NewLodeClient(cfg Config, root string) (*LodeClient, error) {
	return NewLodeClientWithFactory(cfg, lode.NewFSFactory(root))
}

// NewLodeClientWithFactory creates a new Lode client with a custom store factory.
// Use lode.NewMemoryFactory() for testing.
func NewLodeClientWithFactory(cfg Config, factory lode.StoreFactory) (*LodeClient, error) {
	ds, err := newDataset(cfg.dataset(), factory)
	if err != nil {
		return nil, WrapInitError(err, cfg.dataset())
	}
	return &LodeClient{dataset: ds, config: cfg}, nil
}

func newDataset(id string, factory lode.StoreFactory) (lode.Dataset, error) {
	return lode.NewDataset(
		lode.DatasetID(id),
		factory,
		lode.WithHiveLayout(partitionKeys...),
		lode.WithCodec(lode.NewJSONLCodec()),
	)
}

// Config returns the client's partition configuration.
func (c *LodeClient) Config() Config {
	return c.config
}

// WriteOutcomes writes one snapshot holding every record in the batch.
func (c *LodeClient) WriteOutcomes(ctx context.Context, records []OutcomeRecord) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, r.toMap())
	}
	return c.write(ctx, rows)
}

// WriteSummary writes the summary as its own snapshot.
func (c *LodeClient) WriteSummary(ctx context.Context, summary SummaryRecord) error {
	return c.write(ctx, []any{summary.toMap()})
}

func (c *LodeClient) write(ctx context.Context, rows []any) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return ErrClientClosed
	}
	if _, err := c.dataset.Write(ctx, rows, lode.Metadata{}); err != nil {
		return WrapWriteError(err, c.config.dataset()+"/"+c.config.RunID)
	}
	return nil
}

// Close releases client resources. Writes after Close fail.
func (c *LodeClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

// Verify LodeClient implements Client.
var _ Client = (*LodeClient)(nil)
