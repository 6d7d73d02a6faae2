package lode

import (
	"encoding/base64"
	"time"

	"github.com/pithecene-io/keyspace/types"
)

// RecordKind discriminator values. record_kind is also a partition key.
const (
	RecordKindOutcome = "outcome"
	RecordKindSummary = "summary"
)

// partitionKeys is the Hive layout shared by the write and read paths.
var partitionKeys = []string{"strategy", "day", "run_id", "record_kind"}

// DeriveDay computes the partition day from run start time.
// Format: YYYY-MM-DD in UTC.
func DeriveDay(startTime time.Time) string {
	return startTime.UTC().Format("2006-01-02")
}

// Config holds the partition values shared by every record a client writes.
type Config struct {
	// Dataset is the Lode dataset ID (default "keyspace").
	Dataset string
	// Strategy is the partition key for the candidate strategy kind.
	Strategy string
	// Day is the partition key derived from run start time (YYYY-MM-DD UTC).
	Day string
	// RunID is the partition key for run identifier.
	RunID string
}

// DefaultDataset is the dataset ID used when Config.Dataset is empty.
const DefaultDataset = "keyspace"

func (c Config) dataset() string {
	if c.Dataset == "" {
		return DefaultDataset
	}
	return c.Dataset
}

// OutcomeRecord is the storage format for a single reported outcome.
type OutcomeRecord struct {
	RecordKind string `json:"record_kind"`

	Seq      int64  `json:"seq"`
	Value    string `json:"value"`
	Kind     string `json:"kind"`
	Attempt  int    `json:"attempt"`
	Cause    string `json:"cause,omitempty"`
	Evidence string `json:"evidence,omitempty"` // base64
	Ts       string `json:"ts"`

	// Partition keys
	Strategy string `json:"strategy"`
	Day      string `json:"day"`
	RunID    string `json:"run_id"`
}

// SummaryRecord is the storage format for a finished run.
type SummaryRecord struct {
	RecordKind string `json:"record_kind"`

	State     string `json:"state"`
	Reason    string `json:"reason"`
	Winner    string `json:"winner,omitempty"`
	WinnerSeq *int64 `json:"winner_seq,omitempty"`

	Attempts  int64 `json:"attempts"`
	Accepted  int64 `json:"accepted"`
	Rejected  int64 `json:"rejected"`
	Transient int64 `json:"transient"`
	GaveUp    int64 `json:"gave_up"`
	Discarded int64 `json:"discarded"`

	ElapsedMs    int64  `json:"elapsed_ms"`
	KeyspaceSize int64  `json:"keyspace_size"`
	Concurrency  int    `json:"concurrency"`
	Fingerprint  string `json:"fingerprint,omitempty"`
	Version      string `json:"version"`
	Ts           string `json:"ts"`

	// Partition keys
	Strategy string `json:"strategy"`
	Day      string `json:"day"`
	RunID    string `json:"run_id"`
}

// NewOutcomeRecord converts an outcome into its storage format.
func NewOutcomeRecord(o types.Outcome, cfg Config, ts time.Time) OutcomeRecord {
	r := OutcomeRecord{
		RecordKind: RecordKindOutcome,
		Seq:        o.Candidate.Seq,
		Value:      o.Candidate.Value,
		Kind:       string(o.Kind),
		Attempt:    o.Attempt,
		Ts:         ts.UTC().Format(time.RFC3339Nano),
		Strategy:   cfg.Strategy,
		Day:        cfg.Day,
		RunID:      cfg.RunID,
	}
	if o.Cause != nil {
		r.Cause = o.Cause.Error()
	}
	if len(o.Evidence) > 0 {
		r.Evidence = base64.StdEncoding.EncodeToString(o.Evidence)
	}
	return r
}

// NewSummaryRecord converts a run result into its storage format.
// The winner value is included only when includeWinner is set.
func NewSummaryRecord(res *types.RunResult, cfg Config, includeWinner bool, ts time.Time) SummaryRecord {
	r := SummaryRecord{
		RecordKind: RecordKindSummary,
		State:      string(res.State),
		Reason:     res.Reason,
		Attempts:   res.Attempts,
		Accepted:   res.Counts.Accepted,
		Rejected:   res.Counts.Rejected,
		Transient:  res.Counts.Transient,
		GaveUp:     res.Counts.GaveUp,
		Discarded:  res.Counts.Discarded,
		ElapsedMs:  res.Elapsed.Milliseconds(),
		Version:    types.RecordSchemaVersion,
		Ts:         ts.UTC().Format(time.RFC3339Nano),
		Strategy:   cfg.Strategy,
		Day:        cfg.Day,
		RunID:      cfg.RunID,
	}
	if res.Winner != nil {
		seq := res.Winner.Seq
		r.WinnerSeq = &seq
		if includeWinner {
			r.Winner = res.Winner.Value
		}
	}
	return r
}

// toMap converts an outcome record to the map form Lode's HiveLayout needs.
func (r OutcomeRecord) toMap() map[string]any {
	m := map[string]any{
		"record_kind": r.RecordKind,
		"seq":         r.Seq,
		"value":       r.Value,
		"kind":        r.Kind,
		"attempt":     r.Attempt,
		"ts":          r.Ts,
		"strategy":    r.Strategy,
		"day":         r.Day,
		"run_id":      r.RunID,
	}
	if r.Cause != "" {
		m["cause"] = r.Cause
	}
	if r.Evidence != "" {
		m["evidence"] = r.Evidence
	}
	return m
}

func (r SummaryRecord) toMap() map[string]any {
	m := map[string]any{
		"record_kind":   r.RecordKind,
		"state":         r.State,
		"reason":        r.Reason,
		"attempts":      r.Attempts,
		"accepted":      r.Accepted,
		"rejected":      r.Rejected,
		"transient":     r.Transient,
		"gave_up":       r.GaveUp,
		"discarded":     r.Discarded,
		"elapsed_ms":    r.ElapsedMs,
		"keyspace_size": r.KeyspaceSize,
		"concurrency":   r.Concurrency,
		"version":       r.Version,
		"ts":            r.Ts,
		"strategy":      r.Strategy,
		"day":           r.Day,
		"run_id":        r.RunID,
	}
	if r.Fingerprint != "" {
		m["fingerprint"] = r.Fingerprint
	}
	if r.Winner != "" {
		m["winner"] = r.Winner
	}
	if r.WinnerSeq != nil {
		m["winner_seq"] = *r.WinnerSeq
	}
	return m
}

// summaryFromMap decodes a stored summary. Numbers may come back as
// float64 after a JSONL round trip.
func summaryFromMap(m map[string]any) SummaryRecord {
	r := SummaryRecord{
		RecordKind:   toString(m["record_kind"]),
		State:        toString(m["state"]),
		Reason:       toString(m["reason"]),
		Winner:       toString(m["winner"]),
		Attempts:     toInt64(m["attempts"]),
		Accepted:     toInt64(m["accepted"]),
		Rejected:     toInt64(m["rejected"]),
		Transient:    toInt64(m["transient"]),
		GaveUp:       toInt64(m["gave_up"]),
		Discarded:    toInt64(m["discarded"]),
		ElapsedMs:    toInt64(m["elapsed_ms"]),
		KeyspaceSize: toInt64(m["keyspace_size"]),
		Concurrency:  int(toInt64(m["concurrency"])),
		Fingerprint:  toString(m["fingerprint"]),
		Version:      toString(m["version"]),
		Ts:           toString(m["ts"]),
		Strategy:     toString(m["strategy"]),
		Day:          toString(m["day"]),
		RunID:        toString(m["run_id"]),
	}
	if v, ok := m["winner_seq"]; ok && v != nil {
		seq := toInt64(v)
		r.WinnerSeq = &seq
	}
	return r
}

// toString converts a value to string, returning empty string for nil/non-string.
func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
