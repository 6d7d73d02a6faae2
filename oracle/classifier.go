package oracle

import (
	"bytes"
	"fmt"
	"slices"

	"github.com/pithecene-io/keyspace/types"
)

// StatusRules classifies responses by status code before any body check.
type StatusRules struct {
	// Stale codes mean the session was refused (e.g. 401, 419).
	Stale []int
	// Transient codes are retried (e.g. 429, 502, 503).
	Transient []int
}

// apply reports whether status maps to a transient verdict, and its cause.
func (r StatusRules) apply(status int) (bool, error) {
	if slices.Contains(r.Stale, status) {
		return true, &types.TransientProbeError{Cause: fmt.Errorf("status %d", status), Stale: true}
	}
	if slices.Contains(r.Transient, status) || status >= 500 {
		return true, &types.TransientProbeError{Cause: fmt.Errorf("status %d", status)}
	}
	return false, nil
}

// RejectMarker classifies a response as rejected when its body contains
// marker (case-insensitive) and as accepted otherwise, after status rules.
// It suits targets whose refusal page carries a stable phrase.
func RejectMarker(marker string, rules StatusRules) Classifier {
	needle := bytes.ToLower([]byte(marker))
	return func(resp Response) (types.OutcomeKind, error) {
		if ok, cause := rules.apply(resp.Status); ok {
			return types.OutcomeTransient, cause
		}
		if bytes.Contains(bytes.ToLower(resp.Body), needle) {
			return types.OutcomeRejected, nil
		}
		return types.OutcomeAccepted, nil
	}
}

// AcceptMarker classifies a response as accepted only when its body
// contains marker (case-insensitive), after status rules. Safer than
// RejectMarker when error pages vary.
func AcceptMarker(marker string, rules StatusRules) Classifier {
	needle := bytes.ToLower([]byte(marker))
	return func(resp Response) (types.OutcomeKind, error) {
		if ok, cause := rules.apply(resp.Status); ok {
			return types.OutcomeTransient, cause
		}
		if bytes.Contains(bytes.ToLower(resp.Body), needle) {
			return types.OutcomeAccepted, nil
		}
		return types.OutcomeRejected, nil
	}
}

// AcceptStatus classifies purely by status code: codes in accept are
// accepted, status rules produce transients, anything else is rejected.
func AcceptStatus(accept []int, rules StatusRules) Classifier {
	return func(resp Response) (types.OutcomeKind, error) {
		if slices.Contains(accept, resp.Status) {
			return types.OutcomeAccepted, nil
		}
		if ok, cause := rules.apply(resp.Status); ok {
			return types.OutcomeTransient, cause
		}
		return types.OutcomeRejected, nil
	}
}
