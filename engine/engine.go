package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-descriptors/engine/systems"
)

type Stage uint8

const (
	// Engine is in an uninitialized state
	EngineStageUninitialized Stage = iota
	// Engine is currently initializing
	EngineStageInitializing
	// Engine initialization is complete
	EngineStageInitialized
	// Engine is currently running
	EngineStageRunning
	// Engine is in the process of shutting down
	EngineStageShuttingDown
)

type Engine struct {
	currentStage  Stage
	gameInstance  *Game
	stopped       atomic.Bool
	systemManager *systems.SystemManager
	frames        *core.FrameCounter
	clock         *core.Clock
	metrics       *core.FrameMetrics
	events        *core.EventSystem
}

// New builds the engine around a native device. The device is owned by the
// caller and must outlive the engine.
func New(g *Game, device descriptors.NativeDevice) (*Engine, error) {
	if g.ApplicationConfig == nil || g.ApplicationConfig.Config == nil {
		err := fmt.Errorf("func New - game has no application config: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	frames := core.NewFrameCounter()

	sm, err := systems.NewSystemManager(g.ApplicationConfig.Config, device, frames, max(1, g.ApplicationConfig.Workers))
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	g.SystemManager = sm

	e := &Engine{
		currentStage:  EngineStageUninitialized,
		gameInstance:  g,
		systemManager: sm,
		frames:        frames,
		clock:         core.NewClock(),
		metrics:       core.NewFrameMetrics(),
		events:        core.NewEventSystem(),
	}
	e.events.Register(core.EVENT_CODE_APPLICATION_QUIT, e, e.onQuit)
	return e, nil
}

func (e *Engine) onQuit(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	core.LogInfo("quit requested at frame %d", e.frames.FrameCount())
	e.Stop()
	return true
}

func (e *Engine) Initialize() error {
	e.currentStage = EngineStageInitializing
	if e.gameInstance.FnInitialize != nil {
		if err := e.gameInstance.FnInitialize(); err != nil {
			return err
		}
	}
	e.currentStage = EngineStageInitialized
	return nil
}

// Run drives the frame loop until Stop is called or MaxFrames frames were rendered.
func (e *Engine) Run() error {
	if e.currentStage != EngineStageInitialized {
		return core.ErrNotInitialized
	}
	e.currentStage = EngineStageRunning

	maxFrames := uint64(e.gameInstance.ApplicationConfig.MaxFrames)
	ds := e.systemManager.DescriptorSystem()

	for !e.stopped.Load() {
		frame := e.frames.FrameCount()
		if maxFrames > 0 && frame >= maxFrames {
			break
		}
		e.clock.Start()

		if e.gameInstance.FnUpdate != nil {
			if err := e.gameInstance.FnUpdate(frame); err != nil {
				core.LogError("game update failed at frame %d: %s", frame, err)
				return err
			}
		}

		allocations := 0
		if e.gameInstance.FnRender != nil {
			n, err := e.gameInstance.FnRender(frame)
			if err != nil {
				core.LogError("game render failed at frame %d: %s", frame, err)
				return err
			}
			allocations = n
		}

		// the frame is submitted, everything older than the safe window can go
		e.frames.Advance()
		reclaimed, released := ds.Update()
		e.fireDescriptorEvents(reclaimed, released)

		e.clock.Update()
		e.metrics.Update(core.FrameSample{
			FrameTime:   e.clock.Elapsed(),
			Allocations: allocations,
			PoolsInUse:  ds.Stats().Pools,
		})
		e.clock.Stop()
	}
	return nil
}

func (e *Engine) fireDescriptorEvents(reclaimed, released int) {
	if reclaimed > 0 {
		ctx := core.EventContext{}
		ctx.Data.U64[0] = e.frames.FrameCount()
		ctx.Data.U32[0] = uint32(reclaimed)
		ctx.Data.U32[1] = uint32(released)
		e.events.Fire(core.EVENT_CODE_DESCRIPTORS_RECLAIMED, e, ctx)
	}
	if released > 0 {
		ctx := core.EventContext{}
		ctx.Data.U64[0] = e.frames.FrameCount()
		ctx.Data.U32[0] = uint32(released)
		e.events.Fire(core.EVENT_CODE_DESCRIPTORS_RELEASED, e, ctx)
	}
}

// Stop makes Run return after the current frame. Safe to call from any goroutine.
func (e *Engine) Stop() {
	e.stopped.Store(true)
}

func (e *Engine) Shutdown() error {
	e.currentStage = EngineStageShuttingDown
	if e.gameInstance.FnShutdown != nil {
		if err := e.gameInstance.FnShutdown(); err != nil {
			return err
		}
	}
	if err := e.systemManager.Shutdown(); err != nil {
		return err
	}
	e.events.Shutdown()
	e.currentStage = EngineStageUninitialized
	return nil
}

// Events is the engine's event bus. Firing EVENT_CODE_APPLICATION_QUIT stops the loop.
func (e *Engine) Events() *core.EventSystem {
	return e.events
}

func (e *Engine) Metrics() *core.FrameMetrics {
	return e.metrics
}

func (e *Engine) FrameCount() uint64 {
	return e.frames.FrameCount()
}

func (e *Engine) Stage() Stage {
	return e.currentStage
}
