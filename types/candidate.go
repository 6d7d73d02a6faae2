// Package types defines core domain types for the keyspace search engine.
//
//nolint:revive // types is a common Go package naming convention
package types

import "strconv"

// Candidate is one unit of the search space.
//
// Value is opaque to the engine. Seq is the deterministic ordinal assigned by
// the source that produced it: bulk candidates are numbered from 0, priority
// candidates carry negative ordinals so they never collide with bulk ones.
type Candidate struct {
	// Value is the candidate string handed to the oracle.
	Value string `json:"value" msgpack:"value"`
	// Seq is the source-local ordinal of the candidate.
	Seq int64 `json:"seq" msgpack:"seq"`
}

// IsPriority reports whether the candidate came from a priority prefix.
func (c Candidate) IsPriority() bool {
	return c.Seq < 0
}

// String returns the candidate value.
func (c Candidate) String() string {
	return c.Value
}

// Label returns a log-safe label that identifies the candidate by ordinal
// without exposing its value.
func (c Candidate) Label() string {
	if c.IsPriority() {
		return "priority#" + strconv.FormatInt(-c.Seq, 10)
	}
	return "seq#" + strconv.FormatInt(c.Seq, 10)
}
