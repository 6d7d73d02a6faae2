// Package candidate produces deterministic, duplicate-free candidate
// sequences for the search engine.
//
// Every Source is safe for concurrent callers: the cursor advances
// atomically, so no candidate is handed out twice within one run.
// Sources are restartable by offset so an interrupted run can resume from
// its checkpoint watermark.
package candidate

import "github.com/pithecene-io/keyspace/types"

// Source yields candidates until it returns types.ErrEndOfSequence.
type Source interface {
	// Next returns the next candidate, or types.ErrEndOfSequence once the
	// sequence is exhausted. Safe for concurrent use.
	Next() (types.Candidate, error)

	// Size returns the number of candidates this source emits in total,
	// counting from its start offset. Returns -1 if unknown.
	Size() int64
}

// Indexed is a Source that can locate a value within its sequence.
// Prioritized uses it to compute an exact size when skip values overlap
// the bulk sequence.
type Indexed interface {
	Source

	// Index returns the ordinal of value, or false if value is not part
	// of the sequence.
	Index(value string) (int64, bool)

	// Offset returns the ordinal of the first candidate emitted.
	Offset() int64
}
