package runtime

import (
	"sync"
	"time"
)

// staleDetector counts distinct candidates that failed transiently within
// a sliding window. When the count reaches the threshold it fires once and
// resets.
type staleDetector struct {
	threshold int
	window    time.Duration

	mu   sync.Mutex
	seen map[int64]time.Time // candidate seq -> last transient failure
}

func newStaleDetector(threshold int, window time.Duration) *staleDetector {
	if threshold <= 0 {
		return nil
	}
	return &staleDetector{
		threshold: threshold,
		window:    window,
		seen:      make(map[int64]time.Time),
	}
}

// observe records a transient failure for seq at now and reports whether
// the burst threshold was reached.
func (s *staleDetector) observe(seq int64, now time.Time) bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := now.Add(-s.window)
	for k, at := range s.seen {
		if at.Before(cutoff) {
			delete(s.seen, k)
		}
	}
	s.seen[seq] = now

	if len(s.seen) < s.threshold {
		return false
	}
	clear(s.seen)
	return true
}
