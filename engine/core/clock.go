package core

import (
	"sync/atomic"
	"time"
)

type Clock struct {
	startTime time.Time
	elapsed   time.Duration
}

func NewClock() *Clock {
	return &Clock{}
}

// Updates the provided clock. Should be called just before checking elapsed time.
// Has no effect on non-started clocks.
func (c *Clock) Update() {
	if !c.startTime.IsZero() {
		c.elapsed = time.Since(c.startTime)
	}
}

// Starts the provided clock. Resets elapsed time.
func (c *Clock) Start() {
	c.startTime = time.Now()
	c.elapsed = 0
}

// Stops the provided clock. Does not reset elapsed time.
func (c *Clock) Stop() {
	c.startTime = time.Time{}
}

func (c *Clock) Elapsed() time.Duration {
	return c.elapsed
}

// FrameCounter is the engine's monotonically increasing frame number. It is
// advanced once per presented frame by the render loop and read from any
// goroutine that needs to stamp or compare frame tokens.
type FrameCounter struct {
	frame atomic.Uint64
}

func NewFrameCounter() *FrameCounter {
	return &FrameCounter{}
}

// FrameCount returns the current frame number.
func (fc *FrameCounter) FrameCount() uint64 {
	return fc.frame.Load()
}

// Advance moves to the next frame and returns its number.
func (fc *FrameCounter) Advance() uint64 {
	return fc.frame.Add(1)
}
