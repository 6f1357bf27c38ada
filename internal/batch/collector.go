// Package batch provides an adaptive batching primitive for streams of
// weighted items.
package batch

import (
	"sync"
	"time"
)

const (
	// DefaultTimeout bounds how long a partial batch waits before a failsafe flush
	DefaultTimeout = 4 * time.Second

	// DefaultRampUp is the total weight flushed item by item before batching starts
	DefaultRampUp = 50
)

// Option configures a Collector
type Option func(*options)

type options struct {
	timeout time.Duration
	rampUp  int
}

// WithTimeout overrides the failsafe flush timeout
func WithTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithRampUp overrides the ramp-up threshold
func WithRampUp(weight int) Option {
	return func(o *options) {
		if weight >= 0 {
			o.rampUp = weight
		}
	}
}

// Collector accumulates weighted items and hands them to a callback in
// batches. Until the total flushed weight reaches the ramp-up threshold
// every add flushes at once. After that a batch is flushed when its weight
// reaches maxWeight, or when the failsafe timer started by the first item of
// the batch fires.
//
// The callback runs with the collector locked, so batches are delivered one
// at a time and in order. It must not call back into the collector.
type Collector[T any] struct {
	mu sync.Mutex

	maxWeight int
	timeout   time.Duration
	rampUp    int
	cb        func([]T)

	flushedWeight int
	items         []T
	weight        int

	timer    *time.Timer
	timerGen uint64
	stopped  bool
}

// NewCollector creates a collector that emits batches of up to maxWeight through cb
func NewCollector[T any](maxWeight int, cb func([]T), opts ...Option) *Collector[T] {
	o := options{timeout: DefaultTimeout, rampUp: DefaultRampUp}
	for _, opt := range opts {
		opt(&o)
	}
	return &Collector[T]{
		maxWeight: maxWeight,
		timeout:   o.timeout,
		rampUp:    o.rampUp,
		cb:        cb,
	}
}

// AddItem adds one item of the given weight
func (c *Collector[T]) AddItem(item T, weight int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.items = append(c.items, item)
	c.weight += weight
	c.onUpdateLocked()
}

// AddItems adds several items whose combined weight is weight
func (c *Collector[T]) AddItems(items []T, weight int) {
	if len(items) == 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.items = append(c.items, items...)
	c.weight += weight
	c.onUpdateLocked()
}

func (c *Collector[T]) onUpdateLocked() {
	switch {
	case c.flushedWeight < c.rampUp:
		c.flushLocked()
	case c.weight >= c.maxWeight:
		c.flushLocked()
	case c.timer == nil:
		c.timerGen++
		gen := c.timerGen
		c.timer = time.AfterFunc(c.timeout, func() { c.onTimeout(gen) })
	}
}

func (c *Collector[T]) onTimeout(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A flush since this timer was armed already cleared it
	if c.stopped || gen != c.timerGen || c.timer == nil {
		return
	}
	c.flushLocked()
}

// Flush emits the pending batch, if any, and disarms the failsafe timer.
// Flushing an empty collector does nothing.
func (c *Collector[T]) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stopped {
		return
	}
	c.flushLocked()
}

func (c *Collector[T]) flushLocked() {
	if len(c.items) == 0 {
		return
	}

	items := c.items
	c.flushedWeight += c.weight
	c.items = nil
	c.weight = 0
	c.stopTimerLocked()

	c.cb(items)
}

func (c *Collector[T]) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// Stop discards any pending items and disarms the timer. The collector
// ignores all further calls.
func (c *Collector[T]) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopped = true
	c.items = nil
	c.weight = 0
	c.stopTimerLocked()
}

// FlushedWeight returns the total weight emitted so far
func (c *Collector[T]) FlushedWeight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flushedWeight
}
