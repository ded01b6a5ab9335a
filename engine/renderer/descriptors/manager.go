package descriptors

import (
	"slices"
	"sync"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

// DefaultSafeFrames is how many frames a released registry is kept before GC
// may destroy it.
const DefaultSafeFrames uint64 = 10

/**
 * @brief Configuration of a PoolsManager.
 */
type PoolsManagerConfig struct {
	Registry RegistryConfig
	/** @brief Frames a free registry must age before it can be destroyed. */
	SafeFrames uint64
	/** @brief Maximum number of registries a single GC call destroys. */
	ReclaimPerGC int
}

/**
 * @brief A snapshot of the manager state.
 */
type PoolsManagerStats struct {
	Registries        int
	LeasedRegistries  int
	Chains            int
	Pools             int
	RegistriesCreated uint64
	RegistriesFreed   uint64
}

// PoolsManager recycles PoolSetRegistry instances across frames in flight.
// Acquire, Release and GC are expected once per frame per context, so a
// single lock guards the whole registry set.
type PoolsManager struct {
	mu         sync.Mutex
	device     NativeDevice
	clock      FrameClock
	deletion   *DeletionQueue
	config     PoolsManagerConfig
	registries []*PoolSetRegistry
	created    uint64
	freed      uint64
	shutdown   bool
}

func NewPoolsManager(device NativeDevice, clock FrameClock, deletion *DeletionQueue, config PoolsManagerConfig) *PoolsManager {
	if config.ReclaimPerGC < 1 {
		config.ReclaimPerGC = 1
	}
	return &PoolsManager{
		device:   device,
		clock:    clock,
		deletion: deletion,
		config:   config,
	}
}

// Acquire leases a registry: a free one is reset and reused, otherwise a new
// one is created. A registry is leased to at most one caller at a time.
func (pm *PoolsManager) Acquire() (*PoolSetRegistry, error) {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if pm.shutdown {
		return nil, core.ErrShuttingDown
	}

	for _, r := range pm.registries {
		if r.IsUnused() {
			r.SetUsed(true)
			if err := r.Reset(); err != nil {
				r.SetUsed(false)
				return nil, err
			}
			return r, nil
		}
	}

	r := NewPoolSetRegistry(pm.device, pm.clock, pm.config.Registry)
	pm.registries = append(pm.registries, r)
	pm.created++
	core.LogDebug("created pool set registry %s (%d total)", r.ID(), len(pm.registries))
	return r, nil
}

// Release returns a leased registry. It is not reset here: the GPU may still
// be reading its sets, so the reset waits for the next Acquire.
func (pm *PoolsManager) Release(r *PoolSetRegistry) error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	if !slices.Contains(pm.registries, r) {
		return ErrRegistryUnknown
	}
	if r.IsUnused() {
		return ErrRegistryNotLeased
	}
	r.SetUsed(false)
	r.publishedChains = r.ChainCount()
	r.publishedPools = r.PoolCount()
	return nil
}

// GC destroys up to ReclaimPerGC free registries that have been unused for
// more than SafeFrames frames, scanning from the most recently created one.
// It returns how many registries were destroyed.
func (pm *PoolsManager) GC() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frame := pm.clock.FrameCount()
	removed := 0
	for i := len(pm.registries) - 1; i >= 0 && removed < pm.config.ReclaimPerGC; i-- {
		r := pm.registries[i]
		if !r.IsUnused() || frame-r.LastFrameUsed() <= pm.config.SafeFrames {
			continue
		}
		pm.registries = slices.Delete(pm.registries, i, i+1)
		r.destroy(pm.deletion, frame)
		pm.freed++
		removed++
		core.LogDebug("GC destroyed pool set registry %s, idle since frame %d", r.ID(), r.LastFrameUsed())
	}
	return removed
}

// SetReclaimPerGC changes how many registries one GC call may destroy.
func (pm *PoolsManager) SetReclaimPerGC(n int) {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	if n < 1 {
		n = 1
	}
	pm.config.ReclaimPerGC = n
}

// Shutdown destroys every registry, leased or not. Only valid once the device is idle.
func (pm *PoolsManager) Shutdown() {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	frame := pm.clock.FrameCount()
	for _, r := range pm.registries {
		r.destroy(pm.deletion, frame)
		pm.freed++
	}
	pm.registries = nil
	pm.shutdown = true
}

// Stats is safe to call while contexts record. Chains and Pools of a leased
// registry are the counts it was last released with, its owner mutates the
// live ones without synchronization.
func (pm *PoolsManager) Stats() PoolsManagerStats {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	stats := PoolsManagerStats{
		Registries:        len(pm.registries),
		RegistriesCreated: pm.created,
		RegistriesFreed:   pm.freed,
	}
	for _, r := range pm.registries {
		if !r.IsUnused() {
			stats.LeasedRegistries++
		}
		stats.Chains += r.publishedChains
		stats.Pools += r.publishedPools
	}
	return stats
}
