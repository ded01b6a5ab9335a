package core

import (
	"sync"
	"time"

	"github.com/spaghettifunk/anima-descriptors/engine/containers"
)

const AVG_COUNT int = 30

// FrameSample is what a render loop reports once per frame.
type FrameSample struct {
	FrameTime   time.Duration
	Allocations int
	PoolsInUse  int
}

// FrameMetrics keeps a rolling window of the last AVG_COUNT frames.
type FrameMetrics struct {
	mu      sync.Mutex
	samples *containers.RingQueue[FrameSample]
	frames  uint64
	peak    int
}

func NewFrameMetrics() *FrameMetrics {
	return &FrameMetrics{
		samples: containers.NewRingQueue[FrameSample](AVG_COUNT),
	}
}

func (fm *FrameMetrics) Update(sample FrameSample) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	fm.samples.Push(sample)
	fm.frames++
	if sample.Allocations > fm.peak {
		fm.peak = sample.Allocations
	}
}

// Averages returns the mean frame time and allocations per frame over the window.
func (fm *FrameMetrics) Averages() (time.Duration, float64) {
	fm.mu.Lock()
	defer fm.mu.Unlock()

	n := fm.samples.Len()
	if n == 0 {
		return 0, 0
	}
	var total time.Duration
	var allocs int
	fm.samples.Each(func(s FrameSample) {
		total += s.FrameTime
		allocs += s.Allocations
	})
	return total / time.Duration(n), float64(allocs) / float64(n)
}

// PeakAllocations is the highest per-frame allocation count ever reported.
func (fm *FrameMetrics) PeakAllocations() int {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.peak
}

func (fm *FrameMetrics) Frames() uint64 {
	fm.mu.Lock()
	defer fm.mu.Unlock()
	return fm.frames
}
