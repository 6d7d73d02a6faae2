package metrics

import (
	"sync"
	"time"
)

// Sampler calls fn with a meter snapshot every interval until stopped.
type Sampler struct {
	meter    *Meter
	interval time.Duration
	fn       func(Snapshot)

	stop chan struct{}
	done chan struct{}
	once sync.Once
}

// NewSampler starts sampling immediately. interval must be positive.
func NewSampler(meter *Meter, interval time.Duration, fn func(Snapshot)) *Sampler {
	s := &Sampler{
		meter:    meter,
		interval: interval,
		fn:       fn,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *Sampler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.fn(s.meter.Snapshot())
		}
	}
}

// Stop halts sampling and waits for an in-progress callback to return.
// Safe to call more than once.
func (s *Sampler) Stop() {
	s.once.Do(func() { close(s.stop) })
	<-s.done
}
