package clock

import (
	"time"

	"github.com/zachsimson/Lockedin-sub000/internal/chess"
)

type EventKind int8

const (
	None EventKind = iota
	Timeout
)

// Event reports what a tick produced. Side is meaningful only for Timeout.
type Event struct {
	Kind EventKind
	Side chess.Color
}

// Clock is a two-sided countdown. Only the running side's time is consumed,
// and only while the clock is running. It is not safe for concurrent use;
// the owning session serializes access.
type Clock struct {
	remaining [2]time.Duration
	side      chess.Color
	running   bool
}

// New creates a paused clock with the same allotment for both sides and
// White to move.
func New(initial time.Duration) *Clock {
	return &Clock{remaining: [2]time.Duration{initial, initial}}
}

// Restore rebuilds a clock from persisted state.
func Restore(white, black time.Duration, side chess.Color, running bool) *Clock {
	return &Clock{remaining: [2]time.Duration{white, black}, side: side, running: running}
}

func (c *Clock) Remaining(side chess.Color) time.Duration { return c.remaining[side] }
func (c *Clock) RunningSide() chess.Color { return c.side }
func (c *Clock) Running() bool { return c.running }

// Tick consumes elapsed from the running side, clamping at zero. Reaching
// zero stops the clock and emits Timeout for that side.
func (c *Clock) Tick(elapsed time.Duration) Event {
	if !c.running || elapsed <= 0 {
		return Event{}
	}
	left := c.remaining[c.side] - elapsed
	if left > 0 {
		c.remaining[c.side] = left
		return Event{}
	}
	c.remaining[c.side] = 0
	c.running = false
	return Event{Kind: Timeout, Side: c.side}
}

// Switch hands the move to side without changing the running state.
func (c *Clock) Switch(side chess.Color) {
	c.side = side
}

func (c *Clock) Pause() {
	c.running = false
}

// Resume restarts the clock unless a side has already run out of time.
func (c *Clock) Resume() {
	if c.remaining[c.side] == 0 {
		return
	}
	c.running = true
}

// Flagged reports whether side has no time left.
func (c *Clock) Flagged(side chess.Color) bool {
	return c.remaining[side] == 0
}
