package engine

import (
	"errors"
	"testing"

	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors/headless"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, g *Game) *Engine {
	t.Helper()
	cfg := config.Default()
	cfg.Logging.Level = "error"
	g.ApplicationConfig = &ApplicationConfig{Name: "engine test", Workers: 1, MaxFrames: 10, Config: cfg}
	e, err := New(g, headless.NewDevice(headless.DefaultLimits()))
	require.NoError(t, err)
	return e
}

func TestNew_RequiresConfig(t *testing.T) {
	_, err := New(&Game{}, headless.NewDevice(headless.DefaultLimits()))
	assert.ErrorIs(t, err, core.ErrNotInitialized)
}

func TestEngine_RunsMaxFrames(t *testing.T) {
	var updates []uint64
	g := &Game{
		FnUpdate: func(frame uint64) error {
			updates = append(updates, frame)
			return nil
		},
		FnRender: func(uint64) (int, error) { return 3, nil },
	}
	e := newTestEngine(t, g)

	assert.ErrorIs(t, e.Run(), core.ErrNotInitialized)
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())

	assert.Equal(t, uint64(10), e.FrameCount())
	assert.Len(t, updates, 10)
	assert.Equal(t, uint64(9), updates[9])
	assert.Equal(t, 3, e.Metrics().PeakAllocations())
	require.NoError(t, e.Shutdown())
	assert.Equal(t, EngineStageUninitialized, e.Stage())
}

func TestEngine_QuitEventStopsLoop(t *testing.T) {
	var e *Engine
	g := &Game{
		FnUpdate: func(frame uint64) error {
			if frame == 3 {
				e.Events().Fire(core.EVENT_CODE_APPLICATION_QUIT, nil, core.EventContext{})
			}
			return nil
		},
	}
	e = newTestEngine(t, g)
	require.NoError(t, e.Initialize())
	require.NoError(t, e.Run())

	// the frame that asked to quit still completes
	assert.Equal(t, uint64(4), e.FrameCount())
	require.NoError(t, e.Shutdown())
}

func TestEngine_RenderErrorAbortsRun(t *testing.T) {
	boom := errors.New("boom")
	g := &Game{
		FnRender: func(frame uint64) (int, error) {
			if frame == 2 {
				return 0, boom
			}
			return 1, nil
		},
	}
	e := newTestEngine(t, g)
	require.NoError(t, e.Initialize())
	assert.ErrorIs(t, e.Run(), boom)
	assert.Equal(t, uint64(2), e.FrameCount())
	require.NoError(t, e.Shutdown())
}
