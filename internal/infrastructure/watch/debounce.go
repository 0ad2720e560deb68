// Package watch feeds on-disk edits of a document into the editor session.
package watch

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid triggers and delivers only the last value once
// the window passes without another trigger.
type Debouncer[T any] struct {
	window   time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	latest   T
	callback func(T)
}

// NewDebouncer creates a debouncer with the given window duration.
func NewDebouncer[T any](window time.Duration, callback func(T)) *Debouncer[T] {
	return &Debouncer[T]{
		window:   window,
		callback: callback,
	}
}

// Trigger records v and restarts the window.
func (d *Debouncer[T]) Trigger(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.latest = v
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.fire)
}

func (d *Debouncer[T]) fire() {
	d.mu.Lock()
	v := d.latest
	d.timer = nil
	d.mu.Unlock()
	d.callback(v)
}

// Stop cancels any pending callback.
func (d *Debouncer[T]) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
