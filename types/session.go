package types

import (
	"maps"
	"time"
)

// SessionContext is an immutable snapshot of whatever state the oracle needs
// to construct a probe (tokens, cookies, form fields).
//
// Providers build a new SessionContext on refresh and swap it in; nothing
// mutates one after construction. Values returned by accessors are copies.
type SessionContext struct {
	id        string
	values    map[string]string
	issuedAt  time.Time
	expiresAt time.Time
}

// NewSessionContext creates a session snapshot. A zero ttl means the session
// never expires.
func NewSessionContext(id string, values map[string]string, issuedAt time.Time, ttl time.Duration) *SessionContext {
	s := &SessionContext{
		id:       id,
		values:   maps.Clone(values),
		issuedAt: issuedAt,
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	if ttl > 0 {
		s.expiresAt = issuedAt.Add(ttl)
	}
	return s
}

// ID returns the session identifier.
func (s *SessionContext) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Value returns the value stored under key.
func (s *SessionContext) Value(key string) (string, bool) {
	if s == nil {
		return "", false
	}
	v, ok := s.values[key]
	return v, ok
}

// Values returns a copy of all session values.
func (s *SessionContext) Values() map[string]string {
	if s == nil {
		return map[string]string{}
	}
	return maps.Clone(s.values)
}

// IssuedAt returns when the session was issued.
func (s *SessionContext) IssuedAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.issuedAt
}

// ExpiresAt returns the expiry time, or the zero time if the session does
// not expire.
func (s *SessionContext) ExpiresAt() time.Time {
	if s == nil {
		return time.Time{}
	}
	return s.expiresAt
}

// Valid reports whether the session may still be used at now.
// A nil session is never valid.
func (s *SessionContext) Valid(now time.Time) bool {
	if s == nil {
		return false
	}
	if s.expiresAt.IsZero() {
		return true
	}
	return now.Before(s.expiresAt)
}
