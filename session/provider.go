// Package session supplies the read-only SessionContext snapshots the
// engine hands to the oracle.
//
// The engine never refreshes a session itself: it calls Current() before
// each probe and OnStaleSignal() when transient failures burst. Providers
// swap in a new snapshot atomically, so workers never observe a torn one.
package session

import (
	"sync/atomic"

	"github.com/pithecene-io/keyspace/types"
)

// Provider hands out the current session snapshot.
type Provider interface {
	// Current returns the latest snapshot. It may be nil or already
	// rejected by the oracle; the engine treats that as a transient error.
	Current() *types.SessionContext

	// OnStaleSignal tells the provider the engine saw a burst of transient
	// failures. The provider decides whether and when to refresh. Must not
	// block.
	OnStaleSignal()
}

// Static always returns the same snapshot and counts stale signals.
type Static struct {
	session *types.SessionContext
	signals atomic.Int64
}

// NewStatic creates a provider for a fixed snapshot. session may be nil
// for oracles that need no session state.
func NewStatic(session *types.SessionContext) *Static {
	return &Static{session: session}
}

// Current implements Provider.
func (s *Static) Current() *types.SessionContext {
	return s.session
}

// OnStaleSignal implements Provider.
func (s *Static) OnStaleSignal() {
	s.signals.Add(1)
}

// Signals returns how many stale signals were received.
func (s *Static) Signals() int64 {
	return s.signals.Load()
}

var _ Provider = (*Static)(nil)
