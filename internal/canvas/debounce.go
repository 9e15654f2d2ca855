package canvas

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet interval used to coalesce viewport changes.
const DefaultDebounce = 300 * time.Millisecond

// Debouncer coalesces bursts of calls into one call after a quiet
// interval. Each Trigger supersedes the previous one; a superseded call
// never runs, even if its timer already fired.
type Debouncer struct {
	wait time.Duration

	mu    sync.Mutex
	seq   uint64
	timer *time.Timer

	// run serialises callbacks so an older callback cannot finish after a
	// newer one started.
	run sync.Mutex
}

// NewDebouncer returns a Debouncer with the given quiet interval.
func NewDebouncer(wait time.Duration) *Debouncer {
	if wait <= 0 {
		wait = DefaultDebounce
	}
	return &Debouncer{wait: wait}
}

// Trigger schedules fn after the quiet interval, replacing any pending call.
func (d *Debouncer) Trigger(fn func()) {
	d.mu.Lock()
	d.seq++
	seq := d.seq
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, func() {
		d.run.Lock()
		defer d.run.Unlock()
		if !d.current(seq) {
			return
		}
		fn()
	})
	d.mu.Unlock()
}

// Do cancels any pending call and runs fn now. A callback already running
// finishes first, so fn always lands last.
func (d *Debouncer) Do(fn func()) {
	d.Stop()
	d.run.Lock()
	defer d.run.Unlock()
	fn()
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) current(seq uint64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return seq == d.seq
}
