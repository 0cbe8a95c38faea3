// Package pager implements the shared reveal-more pattern used by the
// heavy previews: render a bounded prefix of a large sequence and grow it
// by one page when the viewport nears the end of what is loaded. Load
// requests are debounced; a newer request cancels the pending one. This
// is purely a rendering-cost control and never affects the underlying
// data.
package pager

import (
	"sync"
	"time"
)

// Page sizes per consumer.
const (
	PageCodeLines      = 80
	PageTextParagraphs = 40
	PageTableRows      = 100
)

// DefaultDelay is the debounce interval before a pending load completes.
const DefaultDelay = 250 * time.Millisecond

// Loader tracks how many units of a sequence are revealed.
type Loader struct {
	mu       sync.Mutex
	pageSize int
	delay    time.Duration
	onChange func(loaded int)

	total  int
	loaded int
	gen    int // increments to cancel superseded pending loads
	timer  *time.Timer
}

// Option configures a Loader.
type Option func(*Loader)

// WithDelay overrides the debounce interval.
func WithDelay(d time.Duration) Option {
	return func(l *Loader) { l.delay = d }
}

// WithOnChange registers a callback invoked (outside the loader's lock)
// each time a pending load completes.
func WithOnChange(f func(loaded int)) Option {
	return func(l *Loader) { l.onChange = f }
}

// New creates a Loader with nothing to reveal yet; call Reset with the
// total unit count before use.
func New(pageSize int, opts ...Option) *Loader {
	if pageSize <= 0 {
		pageSize = 1
	}
	l := &Loader{
		pageSize: pageSize,
		delay:    DefaultDelay,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Reset installs a new total and returns the loaded count to the initial
// page. Any in-flight load is cancelled. Called whenever the underlying
// content changes.
func (l *Loader) Reset(total int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if total < 0 {
		total = 0
	}
	l.cancelLocked()
	l.total = total
	l.loaded = min(l.pageSize, total)
}

// SetPageSize switches the page size for subsequent resets and loads.
// Callers sharing one loader across content shapes set the size before
// Reset.
func (l *Loader) SetPageSize(pageSize int) {
	if pageSize <= 0 {
		pageSize = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.pageSize = pageSize
}

// RequestMore schedules one pending load-more unit of work. If a pending
// load already exists, it is cancelled and the wait restarts. A request
// when everything is loaded is a no-op.
func (l *Loader) RequestMore() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.loaded >= l.total {
		return
	}
	l.cancelLocked()
	l.gen++
	gen := l.gen
	l.timer = time.AfterFunc(l.delay, func() { l.complete(gen) })
}

// complete applies a load that survived the debounce window.
func (l *Loader) complete(gen int) {
	l.mu.Lock()
	if gen != l.gen {
		// Superseded or cancelled while the timer fired.
		l.mu.Unlock()
		return
	}
	l.timer = nil
	l.loaded = min(l.loaded+l.pageSize, l.total)
	loaded := l.loaded
	cb := l.onChange
	l.mu.Unlock()

	if cb != nil {
		cb(loaded)
	}
}

// Loaded returns the number of currently revealed units.
func (l *Loader) Loaded() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loaded
}

// Total returns the total unit count installed by Reset.
func (l *Loader) Total() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}

// Pending reports whether a load is waiting out the debounce interval.
func (l *Loader) Pending() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timer != nil
}

// Close cancels any pending load.
func (l *Loader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cancelLocked()
}

// cancelLocked invalidates the pending load, if any. Caller must hold mu.
func (l *Loader) cancelLocked() {
	l.gen++
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
}
