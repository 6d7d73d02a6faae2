package lode

import (
	"context"
	"errors"
	"fmt"

	"github.com/justapithecus/lode/lode"
)

// ErrNoSummaryFound is returned when no summary record matches the query.
var ErrNoSummaryFound = errors.New("no run summary found")

// QueryRunSummary finds the most recent summary record, filtered by runID
// and strategy when non-empty.
func QueryRunSummary(ctx context.Context, ds lode.Dataset, runID, strategy string) (SummaryRecord, error) {
	snapshots, err := ds.Snapshots(ctx)
	if err != nil {
		return SummaryRecord{}, WrapReadError(err, "keyspace/snapshots")
	}

	// Latest first; snapshots are ordered by creation time.
	for i := len(snapshots) - 1; i >= 0; i-- {
		snap := snapshots[i]

		if !snapshotMatchesFilter(snap, "record_kind", RecordKindSummary) ||
			!snapshotMatchesFilter(snap, "run_id", runID) ||
			!snapshotMatchesFilter(snap, "strategy", strategy) {
			continue
		}

		data, err := ds.Read(ctx, snap.ID)
		if err != nil {
			return SummaryRecord{}, WrapReadError(err, fmt.Sprintf("keyspace/snapshot/%s", snap.ID))
		}

		// Manifest paths are a coarse pre-filter; record fields are authoritative.
		for _, item := range data {
			record, ok := item.(map[string]any)
			if !ok || record["record_kind"] != RecordKindSummary {
				continue
			}
			if runID != "" && toString(record["run_id"]) != runID {
				continue
			}
			if strategy != "" && toString(record["strategy"]) != strategy {
				continue
			}
			return summaryFromMap(record), nil
		}
	}

	return SummaryRecord{}, ErrNoSummaryFound
}
