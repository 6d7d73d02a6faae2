// Package adapter publishes search completion notifications to downstream
// systems (webhooks, Redis pub/sub).
//
// The CLI owns adapter lifecycle; users provide configuration only.
package adapter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pithecene-io/keyspace/types"
)

// EventTypeSearchCompleted is the event_type of every published event.
const EventTypeSearchCompleted = "search_completed"

// SearchCompletedEvent is the payload published when a search finishes.
// The winning value is never included; consumers look it up in storage.
type SearchCompletedEvent struct {
	ContractVersion string `json:"contract_version"`
	EventType       string `json:"event_type"` // always "search_completed"
	RunID           string `json:"run_id"`
	Strategy        string `json:"strategy"`
	Day             string `json:"day"`
	State           string `json:"state"` // succeeded, exhausted, cancelled, failed
	Reason          string `json:"reason"`
	WinnerSeq       *int64 `json:"winner_seq,omitempty"`
	Accepted        int64  `json:"accepted"`
	Rejected        int64  `json:"rejected"`
	Transient       int64  `json:"transient"`
	GaveUp          int64  `json:"gave_up"`
	StoragePath     string `json:"storage_path,omitempty"`
	Timestamp       string `json:"timestamp"` // RFC 3339
	DurationMs      int64  `json:"duration_ms"`
}

// Adapter publishes search completion events to a downstream system.
type Adapter interface {
	// Publish sends a completion event to the downstream system.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *SearchCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// EventMeta carries the run identity shared by every event of a run.
type EventMeta struct {
	RunID       string
	Strategy    string
	Day         string
	StoragePath string
}

// NewEvent builds the completion event for a finished run.
func NewEvent(meta EventMeta, res *types.RunResult, now time.Time) *SearchCompletedEvent {
	ev := &SearchCompletedEvent{
		ContractVersion: types.Version,
		EventType:       EventTypeSearchCompleted,
		RunID:           meta.RunID,
		Strategy:        meta.Strategy,
		Day:             meta.Day,
		State:           string(res.State),
		Reason:          res.Reason,
		Accepted:        res.Counts.Accepted,
		Rejected:        res.Counts.Rejected,
		Transient:       res.Counts.Transient,
		GaveUp:          res.Counts.GaveUp,
		StoragePath:     meta.StoragePath,
		Timestamp:       now.UTC().Format(time.RFC3339),
		DurationMs:      res.Elapsed.Milliseconds(),
	}
	if res.Winner != nil {
		seq := res.Winner.Seq
		ev.WinnerSeq = &seq
	}
	return ev
}

// DefaultBackoff is the delay before the first retry; it doubles per retry.
const DefaultBackoff = 500 * time.Millisecond

// ErrPermanent marks a failure that retrying cannot fix.
var ErrPermanent = errors.New("non-retriable")

// Retry calls fn up to 1+retries times with exponential backoff between
// attempts. It stops early when fn returns an error wrapping ErrPermanent.
// name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, backoff time.Duration, fn func(ctx context.Context) error) error {
	if backoff <= 0 {
		backoff = DefaultBackoff
	}

	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			delay := backoff << uint(i-1)
			t := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-t.C:
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrPermanent) {
			return fmt.Errorf("%s: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
