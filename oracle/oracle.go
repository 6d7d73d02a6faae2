// Package oracle defines the verification boundary of the engine.
//
// An Oracle accepts a candidate and a session snapshot and reports a
// classified types.Outcome. The wire protocol lives entirely in adapters
// supplied by the embedding program; this package only provides the
// interface, a classification layer that keeps success detection pluggable,
// and in-process oracles for benchmarking and tests.
package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/keyspace/types"
)

// Oracle verifies one candidate.
//
// Implementations must be safe for concurrent use with the same session and
// should honor ctx cancellation and deadlines. Probe never panics on a
// rejected or expired session; it reports a transient outcome instead.
type Oracle interface {
	Probe(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome
}

// Func adapts a plain function to the Oracle interface.
type Func func(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome

// Probe implements Oracle.
func (f Func) Probe(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome {
	return f(ctx, c, session)
}

// Response is what a protocol adapter observed for one probe.
type Response struct {
	// Status is a protocol status code (HTTP status, RPC code), 0 if none.
	Status int
	// Body is the raw response payload.
	Body []byte
	// Err is a transport-level failure. A non-nil Err is always transient.
	Err error
}

// Exchange performs the raw protocol call for one candidate.
type Exchange func(ctx context.Context, c types.Candidate, session *types.SessionContext) Response

// Classifier decides what a response means. It returns the outcome kind and,
// for transient kinds, the cause. Wrap the cause with types.ErrStaleSession
// (or return a stale TransientProbeError) when the session was refused.
type Classifier func(resp Response) (types.OutcomeKind, error)

// DefaultEvidenceLimit caps the evidence snippet copied from an accepting
// response.
const DefaultEvidenceLimit = 300

// Classified is an Oracle built from an Exchange and a Classifier.
type Classified struct {
	exchange      Exchange
	classify      Classifier
	evidenceLimit int
}

// NewClassified creates a classified oracle. evidenceLimit <= 0 selects
// DefaultEvidenceLimit.
func NewClassified(exchange Exchange, classify Classifier, evidenceLimit int) (*Classified, error) {
	if exchange == nil {
		return nil, types.NewConfigurationError("oracle.exchange", "required")
	}
	if classify == nil {
		return nil, types.NewConfigurationError("oracle.classifier", "required")
	}
	if evidenceLimit <= 0 {
		evidenceLimit = DefaultEvidenceLimit
	}
	return &Classified{exchange: exchange, classify: classify, evidenceLimit: evidenceLimit}, nil
}

// Probe implements Oracle.
func (o *Classified) Probe(ctx context.Context, c types.Candidate, session *types.SessionContext) types.Outcome {
	resp := o.exchange(ctx, c, session)
	if resp.Err != nil {
		return types.Transient(c, classifyTransportError(resp.Err))
	}

	kind, cause := o.classify(resp)
	switch kind {
	case types.OutcomeAccepted:
		return types.Accepted(c, snippet(resp.Body, o.evidenceLimit))
	case types.OutcomeRejected:
		return types.Rejected(c)
	case types.OutcomeTransient:
		if cause == nil {
			cause = fmt.Errorf("response classified transient (status %d)", resp.Status)
		}
		return types.Transient(c, cause)
	default:
		return types.Transient(c, fmt.Errorf("classifier returned unsupported kind %q", kind))
	}
}

// classifyTransportError maps deadline errors onto types.ErrProbeTimeout.
func classifyTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", types.ErrProbeTimeout, err)
	}
	return err
}

func snippet(body []byte, limit int) []byte {
	if len(body) > limit {
		body = body[:limit]
	}
	return append([]byte(nil), body...)
}

var (
	_ Oracle = Func(nil)
	_ Oracle = (*Classified)(nil)
)
