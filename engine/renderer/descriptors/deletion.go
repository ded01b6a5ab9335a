package descriptors

import (
	"sync"

	"github.com/eapache/queue"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

type ResourceKind uint8

const (
	ResourceSetLayout ResourceKind = iota
	ResourcePool
	ResourcePipelineLayout
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceSetLayout:
		return "descriptor_set_layout"
	case ResourcePool:
		return "descriptor_pool"
	case ResourcePipelineLayout:
		return "pipeline_layout"
	}
	return "unknown"
}

type pendingDeletion struct {
	kind      ResourceKind
	notBefore uint64
	release   func()
}

// DeletionQueue defers destruction of native objects until the GPU can no
// longer reference them. Each entry carries a not-before frame token and
// Sweep is the only place entries are released.
type DeletionQueue struct {
	mu         sync.Mutex
	clock      FrameClock
	safeFrames uint64
	pending    *queue.Queue
}

func NewDeletionQueue(clock FrameClock, safeFrames uint64) *DeletionQueue {
	return &DeletionQueue{
		clock:      clock,
		safeFrames: safeFrames,
		pending:    queue.New(),
	}
}

// Enqueue schedules release for safeFrames after the current frame.
func (dq *DeletionQueue) Enqueue(kind ResourceKind, release func()) uint64 {
	token := dq.clock.FrameCount() + dq.safeFrames
	dq.EnqueueAt(kind, token, release)
	return token
}

// EnqueueAt schedules release for an explicit frame token. Tokens older than
// what is already queued are clamped so the queue stays ordered.
func (dq *DeletionQueue) EnqueueAt(kind ResourceKind, notBefore uint64, release func()) {
	dq.mu.Lock()
	defer dq.mu.Unlock()

	if n := dq.pending.Length(); n > 0 {
		if last := dq.pending.Get(n - 1).(*pendingDeletion); last.notBefore > notBefore {
			notBefore = last.notBefore
		}
	}
	dq.pending.Add(&pendingDeletion{kind: kind, notBefore: notBefore, release: release})
}

// Sweep releases every entry whose token has been reached and returns how
// many were released.
func (dq *DeletionQueue) Sweep() int {
	frame := dq.clock.FrameCount()
	ready := dq.take(func(p *pendingDeletion) bool { return p.notBefore <= frame })
	for _, p := range ready {
		p.release()
	}
	if len(ready) > 0 {
		core.LogDebug("deletion queue released %d native objects at frame %d", len(ready), frame)
	}
	return len(ready)
}

// Flush releases everything regardless of tokens. Only valid once the device is idle.
func (dq *DeletionQueue) Flush() int {
	all := dq.take(func(*pendingDeletion) bool { return true })
	for _, p := range all {
		p.release()
	}
	return len(all)
}

func (dq *DeletionQueue) Pending() int {
	dq.mu.Lock()
	defer dq.mu.Unlock()
	return dq.pending.Length()
}

func (dq *DeletionQueue) take(ready func(*pendingDeletion) bool) []*pendingDeletion {
	dq.mu.Lock()
	defer dq.mu.Unlock()

	var out []*pendingDeletion
	for dq.pending.Length() > 0 {
		p := dq.pending.Peek().(*pendingDeletion)
		if !ready(p) {
			break
		}
		dq.pending.Remove()
		out = append(out, p)
	}
	return out
}
