package testbed

import (
	"context"
	"testing"
	"time"

	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Descriptors.MaxSetsPerPool = 16
	cfg.Descriptors.SafeFrames = 4
	cfg.Simulation = config.SimulationConfig{
		Frames:         150,
		FramesInFlight: 2,
		DrawsPerFrame:  40,
		Shapes:         4,
		Contexts:       3,
		Seed:           7,
	}
	return cfg
}

func runSimulation(t *testing.T, cfg *config.Config) *SimulationReport {
	t.Helper()
	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	report, err := sim.Run(context.Background())
	require.NoError(t, err)
	return report
}

func TestSimulation_RunsAndCleansUp(t *testing.T) {
	report := runSimulation(t, smallConfig())

	assert.Equal(t, uint64(150), report.Frames)
	assert.LessOrEqual(t, report.PipelineLayouts, 4)
	assert.Positive(t, report.SetsAllocated)
	assert.Positive(t, report.DescriptorWrites)
	assert.Positive(t, report.PoolsCreated)
	assert.Positive(t, report.PoolResets, "registries must be recycled across frames")
	assert.Positive(t, report.PeakAllocations)

	// the quiet phase leaves registries idle long enough to be reclaimed
	assert.GreaterOrEqual(t, report.RegistriesFreed, uint64(1))
	assert.Equal(t, int(report.RegistriesFreed), report.GCReclaimed)
	assert.GreaterOrEqual(t, report.GCPasses, 1)
	assert.Positive(t, report.ObjectsReleased)

	assert.Zero(t, report.LivePools)
	assert.Zero(t, report.LiveSetLayouts)
}

func TestSimulation_SameSeedSameWorkload(t *testing.T) {
	a := runSimulation(t, smallConfig())
	b := runSimulation(t, smallConfig())
	assert.Equal(t, a.SetsAllocated, b.SetsAllocated)
	assert.Equal(t, a.DescriptorWrites, b.DescriptorWrites)
	assert.Equal(t, a.PipelineLayouts, b.PipelineLayouts)
}

func TestSimulation_StopsOnCancel(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.Frames = 0

	sim, err := NewSimulation(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	report, err := sim.Run(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.LivePools)
}

func TestNewSimulation_RejectsInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Simulation.Contexts = 0
	_, err := NewSimulation(cfg)
	assert.Error(t, err)
}
