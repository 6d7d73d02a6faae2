package types //nolint:revive // types is a valid package name

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestSessionContext_Valid(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s := NewSessionContext("s-1", map[string]string{"token": "abc"}, issued, time.Minute)
	if !s.Valid(issued.Add(30 * time.Second)) {
		t.Error("session should be valid before expiry")
	}
	if s.Valid(issued.Add(time.Minute)) {
		t.Error("session should be invalid at expiry")
	}

	forever := NewSessionContext("s-2", nil, issued, 0)
	if !forever.Valid(issued.Add(24 * 365 * time.Hour)) {
		t.Error("session without ttl should never expire")
	}

	var nilSession *SessionContext
	if nilSession.Valid(issued) {
		t.Error("nil session must not be valid")
	}
}

func TestSessionContext_Immutable(t *testing.T) {
	values := map[string]string{"token": "abc"}
	s := NewSessionContext("s-1", values, time.Now(), 0)

	values["token"] = "mutated"
	if v, _ := s.Value("token"); v != "abc" {
		t.Errorf("constructor input mutation leaked: token = %q", v)
	}

	out := s.Values()
	out["token"] = "mutated"
	if v, _ := s.Value("token"); v != "abc" {
		t.Errorf("accessor mutation leaked: token = %q", v)
	}
}

func TestIsStale(t *testing.T) {
	if !IsStale(&TransientProbeError{Cause: errors.New("401"), Stale: true}) {
		t.Error("stale TransientProbeError should be stale")
	}
	if IsStale(&TransientProbeError{Cause: errors.New("reset")}) {
		t.Error("non-stale TransientProbeError should not be stale")
	}
	if !IsStale(fmt.Errorf("probe: %w", ErrStaleSession)) {
		t.Error("wrapped ErrStaleSession should be stale")
	}
}

func TestIsConfigurationError(t *testing.T) {
	err := fmt.Errorf("setup: %w", NewConfigurationError("strategy.length", "must be >= 1"))
	if !IsConfigurationError(err) {
		t.Error("wrapped ConfigurationError not detected")
	}
	if IsConfigurationError(errors.New("boom")) {
		t.Error("plain error misclassified as ConfigurationError")
	}
}
