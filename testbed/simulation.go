package testbed

import (
	"context"
	"time"

	"github.com/spaghettifunk/anima-descriptors/engine"
	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors/headless"
	"github.com/spaghettifunk/anima-descriptors/engine/systems"
)

/**
 * @brief What a simulation run did to the descriptor layer.
 */
type SimulationReport struct {
	Frames            uint64
	PipelineLayouts   int
	RegistriesCreated uint64
	RegistriesFreed   uint64
	PoolsCreated      int
	PoolsDestroyed    int
	PoolResets        int
	SetsAllocated     int
	DescriptorWrites  int
	PeakAllocations   int
	AvgAllocations    float64
	AvgFrameTime      time.Duration
	GCPasses          int
	GCReclaimed       int
	ObjectsReleased   int
	LivePools         int
	LiveSetLayouts    int
}

// Simulation runs the testbed game on a headless device.
type Simulation struct {
	device *headless.Device
	game   *TestGame
	engine *engine.Engine
	gc     gcTally
}

// gcTally is fed by descriptor events, all fired from the frame loop.
type gcTally struct {
	passes    int
	reclaimed int
	released  int
}

func NewSimulation(cfg *config.Config) (*Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := core.SetLogLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	if err := core.SetLogFormat(cfg.Logging.Format); err != nil {
		return nil, err
	}
	device := headless.NewDevice(headless.DefaultLimits())
	game := NewTestGame(cfg, device)
	e, err := engine.New(game.Game, device)
	if err != nil {
		return nil, err
	}
	s := &Simulation{device: device, game: game, engine: e}
	e.Events().Register(core.EVENT_CODE_DESCRIPTORS_RECLAIMED, s, s.onReclaimed)
	e.Events().Register(core.EVENT_CODE_DESCRIPTORS_RELEASED, s, s.onReleased)
	return s, nil
}

func (s *Simulation) onReclaimed(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	s.gc.passes++
	s.gc.reclaimed += int(data.Data.U32[0])
	core.LogDebug("frame %d: reclaimed %d registries", data.Data.U64[0], data.Data.U32[0])
	return false
}

func (s *Simulation) onReleased(code core.SystemEventCode, sender interface{}, listener interface{}, data core.EventContext) bool {
	s.gc.released += int(data.Data.U32[0])
	return false
}

// DescriptorSystem exposes the live descriptor system, for config hot reloads.
func (s *Simulation) DescriptorSystem() *systems.DescriptorSystem {
	return s.game.SystemManager.DescriptorSystem()
}

// Run renders the configured number of frames, or until ctx is done, then
// shuts the engine down and reports.
func (s *Simulation) Run(ctx context.Context) (*SimulationReport, error) {
	if err := s.engine.Initialize(); err != nil {
		s.engine.Shutdown()
		return nil, err
	}

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			s.engine.Events().Fire(core.EVENT_CODE_APPLICATION_QUIT, s, core.EventContext{})
		case <-done:
		}
	}()

	runErr := s.engine.Run()
	report := s.report()
	if err := s.engine.Shutdown(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	report.LivePools = s.device.LivePools()
	report.LiveSetLayouts = s.device.LiveSetLayouts()

	core.LogInfo("simulated %d frames: %d pipeline layouts, %d registries created (%d freed), %d pools created, peak %d allocations per frame",
		report.Frames, report.PipelineLayouts, report.RegistriesCreated, report.RegistriesFreed, report.PoolsCreated, report.PeakAllocations)
	return report, nil
}

func (s *Simulation) report() *SimulationReport {
	counters := s.device.Counters()
	stats := s.DescriptorSystem().Stats()
	metrics := s.engine.Metrics()
	avgFrame, avgAllocs := metrics.Averages()
	return &SimulationReport{
		Frames:            s.engine.FrameCount(),
		PipelineLayouts:   s.DescriptorSystem().LayoutCount(),
		RegistriesCreated: stats.RegistriesCreated,
		RegistriesFreed:   stats.RegistriesFreed,
		PoolsCreated:      counters.PoolsCreated,
		PoolsDestroyed:    counters.PoolsDestroyed,
		PoolResets:        counters.PoolResets,
		SetsAllocated:     counters.SetsAllocated,
		DescriptorWrites:  counters.DescriptorWrites,
		PeakAllocations:   metrics.PeakAllocations(),
		AvgAllocations:    avgAllocs,
		AvgFrameTime:      avgFrame,
		GCPasses:          s.gc.passes,
		GCReclaimed:       s.gc.reclaimed,
		ObjectsReleased:   s.gc.released,
	}
}
