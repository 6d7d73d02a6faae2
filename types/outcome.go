package types

import "fmt"

// OutcomeKind classifies the result of a single probe.
type OutcomeKind string

const (
	// OutcomeAccepted indicates the oracle accepted the candidate.
	OutcomeAccepted OutcomeKind = "accepted"
	// OutcomeRejected indicates the oracle rejected the candidate.
	OutcomeRejected OutcomeKind = "rejected"
	// OutcomeTransient indicates a recoverable probe failure (network,
	// timeout, stale session). Eligible for retry.
	OutcomeTransient OutcomeKind = "transient"
	// OutcomeGaveUp is the rejected-equivalent recorded once a candidate
	// exhausted its retry budget.
	OutcomeGaveUp OutcomeKind = "gave_up"
)

// IsFinal reports whether no further probes of the same candidate follow
// this outcome.
func (k OutcomeKind) IsFinal() bool {
	return k != OutcomeTransient
}

// Outcome is the classified result of one probe.
type Outcome struct {
	// Kind is the outcome classification.
	Kind OutcomeKind
	// Candidate is the probed candidate.
	Candidate Candidate
	// Evidence is an opaque snippet returned by the oracle on acceptance.
	// Never interpreted by the engine.
	Evidence []byte
	// Cause is the underlying failure for transient and gave_up outcomes.
	Cause error
	// Attempt is the 1-based dispatch count for this candidate.
	Attempt int
}

// Accepted builds an accepted outcome.
func Accepted(c Candidate, evidence []byte) Outcome {
	return Outcome{Kind: OutcomeAccepted, Candidate: c, Evidence: evidence}
}

// Rejected builds a rejected outcome.
func Rejected(c Candidate) Outcome {
	return Outcome{Kind: OutcomeRejected, Candidate: c}
}

// Transient builds a transient outcome wrapping cause.
func Transient(c Candidate, cause error) Outcome {
	return Outcome{Kind: OutcomeTransient, Candidate: c, Cause: cause}
}

// GaveUp builds the outcome recorded when retries are exhausted.
func GaveUp(c Candidate, cause error, attempt int) Outcome {
	return Outcome{Kind: OutcomeGaveUp, Candidate: c, Cause: cause, Attempt: attempt}
}

// String returns a log-safe description that does not include the
// candidate value.
func (o Outcome) String() string {
	if o.Cause != nil {
		return fmt.Sprintf("%s %s (attempt %d): %v", o.Kind, o.Candidate.Label(), o.Attempt, o.Cause)
	}
	return fmt.Sprintf("%s %s (attempt %d)", o.Kind, o.Candidate.Label(), o.Attempt)
}
