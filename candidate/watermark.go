package candidate

import "sync"

// Watermark tracks which bulk ordinals are dispatched but not finished, so
// an interrupted run can resume without skipping unfinished candidates.
//
// Priority candidates (negative ordinals) are not tracked: they are always
// re-probed first on resume.
type Watermark struct {
	mu      sync.Mutex
	pending map[int64]struct{}
	next    int64
}

// NewWatermark creates a watermark whose low mark starts at offset.
func NewWatermark(offset int64) *Watermark {
	return &Watermark{
		pending: make(map[int64]struct{}),
		next:    offset,
	}
}

// Dispatched records that seq was handed to a worker.
func (w *Watermark) Dispatched(seq int64) {
	if w == nil || seq < 0 {
		return
	}
	w.mu.Lock()
	w.pending[seq] = struct{}{}
	if seq+1 > w.next {
		w.next = seq + 1
	}
	w.mu.Unlock()
}

// Done records that seq reached a final outcome.
func (w *Watermark) Done(seq int64) {
	if w == nil || seq < 0 {
		return
	}
	w.mu.Lock()
	delete(w.pending, seq)
	w.mu.Unlock()
}

// Low returns the smallest ordinal not known to be finished. Resuming from
// Low re-probes at most the candidates that were in flight.
func (w *Watermark) Low() int64 {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	low := w.next
	for seq := range w.pending {
		if seq < low {
			low = seq
		}
	}
	return low
}

// Pending returns the number of dispatched but unfinished ordinals.
func (w *Watermark) Pending() int {
	if w == nil {
		return 0
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}
