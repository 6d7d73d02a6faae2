package candidate

import (
	"sync"
	"sync/atomic"

	"github.com/pithecene-io/keyspace/types"
)

// Prioritized emits a hand-picked priority prefix ahead of a bulk source,
// then filters the bulk sequence so neither the priority candidates nor any
// caller-supplied known-bad value is tested again.
//
// Priority candidates carry ordinals -1, -2, ... in the order given.
type Prioritized struct {
	mu       sync.Mutex
	priority []string
	next     int
	drained  atomic.Bool

	bulk Source
	skip map[string]struct{}
}

// NewPrioritized wraps bulk with a priority prefix and a skip list.
// Duplicate priority values are dropped; a priority value listed in skip is
// not probed at all.
func NewPrioritized(bulk Source, priority, skip []string) *Prioritized {
	p := &Prioritized{
		bulk: bulk,
		skip: make(map[string]struct{}, len(priority)+len(skip)),
	}
	for _, v := range skip {
		p.skip[v] = struct{}{}
	}

	seen := make(map[string]struct{}, len(priority))
	for _, v := range priority {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		if _, skipped := p.skip[v]; skipped {
			continue
		}
		p.priority = append(p.priority, v)
	}
	for _, v := range p.priority {
		p.skip[v] = struct{}{}
	}
	if len(p.priority) == 0 {
		p.drained.Store(true)
	}
	return p
}

// Next implements Source.
func (p *Prioritized) Next() (types.Candidate, error) {
	if !p.drained.Load() {
		if c, ok := p.nextPriority(); ok {
			return c, nil
		}
	}

	for {
		c, err := p.bulk.Next()
		if err != nil {
			return types.Candidate{}, err
		}
		if _, skipped := p.skip[c.Value]; skipped {
			continue
		}
		return c, nil
	}
}

func (p *Prioritized) nextPriority() (types.Candidate, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.next >= len(p.priority) {
		p.drained.Store(true)
		return types.Candidate{}, false
	}
	c := types.Candidate{Value: p.priority[p.next], Seq: -int64(p.next + 1)}
	p.next++
	if p.next == len(p.priority) {
		p.drained.Store(true)
	}
	return c, true
}

// Size implements Source. The size is exact when the bulk source is
// Indexed; otherwise skipped values are assumed to lie outside the bulk
// sequence.
func (p *Prioritized) Size() int64 {
	bulkSize := p.bulk.Size()
	if bulkSize < 0 {
		return -1
	}

	overlap := int64(0)
	if idx, ok := p.bulk.(Indexed); ok {
		for v := range p.skip {
			if seq, found := idx.Index(v); found && seq >= idx.Offset() {
				overlap++
			}
		}
	}
	return int64(len(p.priority)) + bulkSize - overlap
}

// Priority returns a copy of the effective priority prefix.
func (p *Prioritized) Priority() []string {
	return append([]string(nil), p.priority...)
}

var _ Source = (*Prioritized)(nil)
