package runtime

import (
	"container/heap"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/pithecene-io/keyspace/candidate"
	"github.com/pithecene-io/keyspace/types"
)

// work is a candidate with the number of transient failures it has had.
type work struct {
	candidate types.Candidate
	failures  int
	due       time.Time
}

// retryHeap orders pending retries by due time.
type retryHeap []work

func (h retryHeap) Len() int           { return len(h) }
func (h retryHeap) Less(i, j int) bool { return h[i].due.Before(h[j].due) }
func (h retryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *retryHeap) Push(x any)        { *h = append(*h, x.(work)) }
func (h *retryHeap) Pop() any {
	old := *h
	n := len(old)
	w := old[n-1]
	*h = old[:n-1]
	return w
}

// dispatcher hands work to workers: due retries first, then fresh
// candidates from the source. It knows the run is drained when the source
// has ended, no retry is pending and no worker holds work.
type dispatcher struct {
	source candidate.Source
	now    func() time.Time
	sleep  func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	retries    retryHeap
	active     int // workers holding work or pulling from the source
	sourceDone bool
	sourceErr  error
	drained    bool
	wake       chan struct{}
}

func newDispatcher(source candidate.Source, now func() time.Time, sleep func(context.Context, time.Duration) error) *dispatcher {
	return &dispatcher{
		source: source,
		now:    now,
		sleep:  sleep,
		wake:   make(chan struct{}),
	}
}

// notifyLocked wakes every waiting worker. Caller must hold mu.
func (d *dispatcher) notifyLocked() {
	close(d.wake)
	d.wake = make(chan struct{})
}

// next blocks until work is available or the run is over for this worker.
// The returned bool is false when the worker should exit. Every successful
// next must be paired with finish.
func (d *dispatcher) next(ctx context.Context) (work, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	// slept is the due time the last completed retry wait was for. Retries
	// due by then are ready even if the clock reads earlier.
	var slept time.Time
	for {
		if ctx.Err() != nil || d.sourceErr != nil {
			return work{}, false
		}

		if len(d.retries) > 0 && d.ready(d.retries[0].due, slept) {
			d.active++
			return heap.Pop(&d.retries).(work), true
		}

		if !d.sourceDone {
			d.active++
			d.mu.Unlock()
			c, err := d.source.Next()
			d.mu.Lock()

			if err == nil {
				return work{candidate: c}, true
			}
			d.active--
			if errors.Is(err, types.ErrEndOfSequence) {
				d.sourceDone = true
			} else {
				d.sourceErr = err
			}
			d.notifyLocked()
			continue
		}

		if len(d.retries) == 0 && d.active == 0 {
			d.drained = true
			d.notifyLocked()
			return work{}, false
		}

		// Wait for the earliest retry to come due, or for another worker to
		// finish (it may enqueue a retry or drain the run).
		wake := d.wake
		var (
			due    <-chan struct{}
			target time.Time
			cancel context.CancelFunc = func() {}
		)
		if len(d.retries) > 0 {
			target = d.retries[0].due
			due, cancel = d.waitUntil(ctx, target)
		}

		d.mu.Unlock()
		select {
		case <-wake:
		case <-due:
			slept = target
		case <-ctx.Done():
		}
		cancel()
		d.mu.Lock()
	}
}

func (d *dispatcher) ready(due, slept time.Time) bool {
	return !due.After(d.now()) || (!slept.IsZero() && !due.After(slept))
}

// waitUntil sleeps until t on the dispatcher's clock. The returned channel
// is closed when the sleep completes; cancel abandons it.
func (d *dispatcher) waitUntil(ctx context.Context, t time.Time) (<-chan struct{}, context.CancelFunc) {
	waitCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		if d.sleep(waitCtx, t.Sub(d.now())) == nil {
			close(done)
		}
	}()
	return done, cancel
}

// retry schedules w for another attempt. Called while the worker still
// holds w, before finish.
func (d *dispatcher) retry(w work) {
	d.mu.Lock()
	heap.Push(&d.retries, w)
	d.notifyLocked()
	d.mu.Unlock()
}

// finish releases the work taken by next.
func (d *dispatcher) finish() {
	d.mu.Lock()
	d.active--
	d.notifyLocked()
	d.mu.Unlock()
}

// state reports whether the run drained and any fatal source error.
func (d *dispatcher) state() (drained bool, sourceErr error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.drained, d.sourceErr
}

// pending returns the number of retries not yet taken.
func (d *dispatcher) pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.retries)
}
