package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventSystem_FireStopsAtFirstHandler(t *testing.T) {
	es := NewEventSystem()
	var calls []string
	first := func(SystemEventCode, interface{}, interface{}, EventContext) bool {
		calls = append(calls, "first")
		return true
	}
	second := func(SystemEventCode, interface{}, interface{}, EventContext) bool {
		calls = append(calls, "second")
		return true
	}

	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, "a", first))
	assert.True(t, es.Register(EVENT_CODE_APPLICATION_QUIT, "b", second))
	assert.True(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, []string{"first"}, calls)

	assert.True(t, es.Unregister(EVENT_CODE_APPLICATION_QUIT, "a"))
	assert.True(t, es.Fire(EVENT_CODE_APPLICATION_QUIT, nil, EventContext{}))
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEventSystem_RegisterRejectsDuplicates(t *testing.T) {
	es := NewEventSystem()
	cb := func(SystemEventCode, interface{}, interface{}, EventContext) bool { return false }

	assert.True(t, es.Register(EVENT_CODE_DESCRIPTORS_RECLAIMED, "l", cb))
	assert.False(t, es.Register(EVENT_CODE_DESCRIPTORS_RECLAIMED, "l", cb))
	assert.False(t, es.Register(MAX_MESSAGE_CODES, "l", cb))
	assert.False(t, es.Register(EVENT_CODE_DESCRIPTORS_RECLAIMED, "other", nil))
	assert.False(t, es.Unregister(EVENT_CODE_APPLICATION_QUIT, "l"))
}

func TestEventSystem_PassesContext(t *testing.T) {
	es := NewEventSystem()
	var got EventContext
	es.Register(EVENT_CODE_DESCRIPTORS_RECLAIMED, nil, func(_ SystemEventCode, _ interface{}, _ interface{}, data EventContext) bool {
		got = data
		return false
	})

	ctx := EventContext{}
	ctx.Data.U64[0] = 42
	ctx.Data.U32[0] = 3
	assert.False(t, es.Fire(EVENT_CODE_DESCRIPTORS_RECLAIMED, nil, ctx))
	assert.Equal(t, uint64(42), got.Data.U64[0])
	assert.Equal(t, uint32(3), got.Data.U32[0])

	es.Shutdown()
	got = EventContext{}
	es.Fire(EVENT_CODE_DESCRIPTORS_RECLAIMED, nil, ctx)
	assert.Zero(t, got.Data.U64[0])
}

func TestEventSystem_ConcurrentFire(t *testing.T) {
	es := NewEventSystem()
	var mu sync.Mutex
	count := 0
	es.Register(EVENT_CODE_DESCRIPTORS_RELEASED, nil, func(SystemEventCode, interface{}, interface{}, EventContext) bool {
		mu.Lock()
		count++
		mu.Unlock()
		return false
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				es.Fire(EVENT_CODE_DESCRIPTORS_RELEASED, nil, EventContext{})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, count)
}
