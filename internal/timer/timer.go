// Package timer measures wall-clock durations.
package timer

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timer records a start and an optional end timestamp.
type Timer struct {
	clock clock.Clock
	start time.Time
	end   time.Time
	ended bool
}

// New returns a stopped timer reading time from clk.
// A nil clk uses the wall clock.
func New(clk clock.Clock) *Timer {
	if clk == nil {
		clk = clock.New()
	}
	return &Timer{clock: clk}
}

// StartNew creates and starts a timer.
func StartNew(clk clock.Clock) *Timer {
	t := New(clk)
	t.Start()
	return t
}

// Start records the start timestamp and clears any previous end.
func (t *Timer) Start() {
	t.start = t.clock.Now()
	t.ended = false
}

// End records the end timestamp.
func (t *Timer) End() {
	t.end = t.clock.Now()
	t.ended = true
}

// Elapsed returns end - start once End was called, otherwise now - start.
func (t *Timer) Elapsed() time.Duration {
	if t.ended {
		return t.end.Sub(t.start)
	}
	return t.clock.Since(t.start)
}
