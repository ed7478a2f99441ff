// Package debounce holds in-progress search text and commits it once typing
// pauses, so a burst of keystrokes produces a single query change.
package debounce

import (
	"sync"
	"time"
)

// DefaultInterval is the quiet period after the last keystroke.
const DefaultInterval = 300 * time.Millisecond

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks. RealClock uses the runtime timer; tests use a
// controllable clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// RealClock returns a Clock backed by time.AfterFunc.
func RealClock() Clock {
	return realClock{}
}

// Buffer debounces free-text input.
type Buffer struct {
	interval time.Duration
	clock    Clock
	current  func() string
	commit   func(string)

	mu      sync.Mutex
	pending string
	timer   Timer
	gen     uint64
	stopped bool
}

// New creates a Buffer. current reports the committed search text and commit
// is called with the buffered text once the interval elapses, but only when
// the two differ. A nil clock means RealClock; a non-positive interval means
// DefaultInterval.
func New(interval time.Duration, clock Clock, current func() string, commit func(string)) *Buffer {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if clock == nil {
		clock = RealClock()
	}
	return &Buffer{
		interval: interval,
		clock:    clock,
		current:  current,
		commit:   commit,
	}
}

// Input records new text and restarts the quiet interval.
func (b *Buffer) Input(text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stopped {
		return
	}
	b.pending = text
	if b.timer != nil {
		b.timer.Stop()
	}
	b.gen++
	gen := b.gen
	b.timer = b.clock.AfterFunc(b.interval, func() { b.fire(gen) })
}

// Pending returns the buffered, not yet committed text.
func (b *Buffer) Pending() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Flush cancels the pending interval and commits immediately.
func (b *Buffer) Flush() {
	b.mu.Lock()
	if b.stopped || b.timer == nil {
		b.mu.Unlock()
		return
	}
	b.timer.Stop()
	b.timer = nil
	b.gen++
	text := b.pending
	b.mu.Unlock()

	b.deliver(text)
}

// Stop cancels any pending commit. Input after Stop is ignored.
func (b *Buffer) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.stopped = true
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.gen++
}

func (b *Buffer) fire(gen uint64) {
	b.mu.Lock()
	// A timer that fired while being replaced or stopped is stale.
	if b.stopped || gen != b.gen {
		b.mu.Unlock()
		return
	}
	b.timer = nil
	text := b.pending
	b.mu.Unlock()

	b.deliver(text)
}

func (b *Buffer) deliver(text string) {
	if b.current != nil && b.current() == text {
		return
	}
	b.commit(text)
}
