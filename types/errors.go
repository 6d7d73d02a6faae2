package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for engine classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrEndOfSequence is returned by candidate sources once every
	// candidate has been emitted.
	ErrEndOfSequence = errors.New("end of candidate sequence")

	// ErrStaleSession indicates the oracle (or the engine) found the
	// session context no longer usable.
	ErrStaleSession = errors.New("stale session")

	// ErrProbeTimeout indicates a probe exceeded its per-call timeout.
	ErrProbeTimeout = errors.New("probe timed out")
)

// ConfigurationError reports an invalid engine setting or candidate
// strategy. It is fatal: a run that hits one ends Failed before any probe.
type ConfigurationError struct {
	// Field is the offending setting (e.g. "concurrency", "strategy.alphabet").
	Field string
	// Reason describes the problem.
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

// NewConfigurationError creates a configuration error.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsConfigurationError reports whether err is or wraps a ConfigurationError.
func IsConfigurationError(err error) bool {
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}

// TransientProbeError wraps a recoverable probe failure.
// Stale marks failures caused by an unusable session.
type TransientProbeError struct {
	Cause error
	Stale bool
}

func (e *TransientProbeError) Error() string {
	if e.Stale {
		return fmt.Sprintf("transient probe error (stale session): %v", e.Cause)
	}
	return fmt.Sprintf("transient probe error: %v", e.Cause)
}

// Unwrap returns the underlying cause for errors.Is/As chain traversal.
func (e *TransientProbeError) Unwrap() error {
	return e.Cause
}

// IsStale reports whether err marks a stale session, either through a
// TransientProbeError with Stale set or by wrapping ErrStaleSession.
func IsStale(err error) bool {
	var tpe *TransientProbeError
	if errors.As(err, &tpe) && tpe.Stale {
		return true
	}
	return errors.Is(err, ErrStaleSession)
}
