// Package debounce collapses bursts of requests into a single call.
package debounce

import (
	"sync"
	"time"
)

// Debouncer runs the most recent function once no new Trigger has arrived
// for the quiet period.
type Debouncer struct {
	quiet time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
	gen     uint64
}

func New(quiet time.Duration) *Debouncer {
	return &Debouncer{quiet: quiet}
}

// Trigger replaces the pending function and restarts the quiet period.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending = fn
	d.gen++
	gen := d.gen
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.quiet, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	// a later Trigger or Stop superseded this timer
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn := d.pending
	d.pending, d.timer = nil, nil
	d.mu.Unlock()
	fn()
}

// Stop discards the pending function.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.gen++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush runs the pending function now, if any, on the caller's goroutine.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	fn := d.pending
	d.gen++
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	if fn == nil {
		return false
	}
	fn()
	return true
}

// Pending reports whether a function is waiting to run.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
