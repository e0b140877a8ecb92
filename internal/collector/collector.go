// Package collector turns the events reported by actors into a run summary.
package collector

import (
	"sync"
	"sync/atomic"
	"time"

	"primeload/internal/core"
)

// DefaultBuffer is the number of events that may wait for the recording goroutine.
const DefaultBuffer = 4096

// Collector receives events from every actor on one channel and records them
// on a single goroutine. Events that do not fit in the buffer are counted as lost.
type Collector struct {
	clock   core.Clock
	in      chan core.Event
	drained chan struct{}
	lost    atomic.Int64

	// gate orders Report against Close so no send hits a closed channel.
	gate   sync.RWMutex
	closed bool

	mu      sync.Mutex
	events  []core.Event
	started time.Time
	ended   time.Time
}

// NewCollector starts a collector on the wall clock.
func NewCollector() *Collector {
	return NewCollectorWithClock(core.RealClock{}, DefaultBuffer)
}

// NewCollectorWithClock starts a collector that measures the run with clock.
func NewCollectorWithClock(clock core.Clock, buffer int) *Collector {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	c := &Collector{
		clock:   clock,
		in:      make(chan core.Event, buffer),
		drained: make(chan struct{}),
		started: clock.Now(),
	}
	go c.record()
	return c
}

func (c *Collector) record() {
	defer close(c.drained)
	for e := range c.in {
		c.mu.Lock()
		c.events = append(c.events, e)
		c.mu.Unlock()
	}
}

// Report queues e without blocking. Safe for concurrent use.
func (c *Collector) Report(e core.Event) {
	c.gate.RLock()
	defer c.gate.RUnlock()
	if c.closed {
		c.lost.Add(1)
		return
	}
	select {
	case c.in <- e:
	default:
		c.lost.Add(1)
	}
}

// Close stops the clock, refuses further events and waits until every
// queued event is recorded. Calling it again has no effect.
func (c *Collector) Close() {
	c.gate.Lock()
	if c.closed {
		c.gate.Unlock()
		return
	}
	c.closed = true
	c.mu.Lock()
	c.ended = c.clock.Now()
	c.mu.Unlock()
	close(c.in)
	c.gate.Unlock()

	<-c.drained
}

// Events returns a copy of everything recorded so far.
func (c *Collector) Events() []core.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.Event(nil), c.events...)
}

// DroppedEvents returns how many events were lost to a full buffer or a closed collector.
func (c *Collector) DroppedEvents() int64 {
	return c.lost.Load()
}

// Duration is the time from creation to Close, or to now while still open.
func (c *Collector) Duration() time.Duration {
	c.mu.Lock()
	ended := c.ended
	c.mu.Unlock()
	if ended.IsZero() {
		return c.clock.Since(c.started)
	}
	return ended.Sub(c.started)
}

// Compute summarizes everything recorded so far.
func (c *Collector) Compute() *Metrics {
	m := Summarize(c.Events(), c.Duration())
	m.Dropped = c.DroppedEvents()
	return m
}
