package descriptors_test

import (
	"testing"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/stretchr/testify/assert"
)

func TestDeletionQueue_ReleasesInTokenOrder(t *testing.T) {
	clock := core.NewFrameCounter()
	dq := descriptors.NewDeletionQueue(clock, 2)

	var released []string
	dq.Enqueue(descriptors.ResourceSetLayout, func() { released = append(released, "a") })
	clock.Advance()
	dq.Enqueue(descriptors.ResourcePool, func() { released = append(released, "b") })

	assert.Zero(t, dq.Sweep())
	clock.Advance()
	assert.Equal(t, 1, dq.Sweep())
	assert.Equal(t, []string{"a"}, released)

	clock.Advance()
	assert.Equal(t, 1, dq.Sweep())
	assert.Equal(t, []string{"a", "b"}, released)
	assert.Zero(t, dq.Pending())
}

func TestDeletionQueue_EnqueueAtKeepsOrder(t *testing.T) {
	clock := core.NewFrameCounter()
	dq := descriptors.NewDeletionQueue(clock, 5)

	var released []string
	dq.Enqueue(descriptors.ResourceSetLayout, func() { released = append(released, "layout") })
	// an older token behind a newer entry waits for it
	dq.EnqueueAt(descriptors.ResourcePool, 0, func() { released = append(released, "pool") })

	assert.Zero(t, dq.Sweep())
	for i := 0; i < 5; i++ {
		clock.Advance()
	}
	assert.Equal(t, 2, dq.Sweep())
	assert.Equal(t, []string{"layout", "pool"}, released)
}

func TestDeletionQueue_Flush(t *testing.T) {
	dq := descriptors.NewDeletionQueue(core.NewFrameCounter(), 100)
	n := 0
	for i := 0; i < 3; i++ {
		dq.Enqueue(descriptors.ResourcePipelineLayout, func() { n++ })
	}
	assert.Equal(t, 3, dq.Flush())
	assert.Equal(t, 3, n)
	assert.Zero(t, dq.Flush())
}

func TestResourceKindString(t *testing.T) {
	assert.Equal(t, "descriptor_pool", descriptors.ResourcePool.String())
	assert.Equal(t, "unknown", descriptors.ResourceKind(9).String())
}
