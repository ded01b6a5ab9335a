package systems

import (
	"fmt"

	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
)

// DescriptorSystem wires the descriptor pooling pieces around one native
// device: the deferred deletion queue, the pipeline layout cache and the
// pools manager handing out per-frame registries.
type DescriptorSystem struct {
	Config *config.DescriptorConfig

	device   descriptors.NativeDevice
	deletion *descriptors.DeletionQueue
	usage    *descriptors.TypesUsageCache
	layouts  *descriptors.PipelineLayoutCache
	pools    *descriptors.PoolsManager
}

/**
 * @brief Creates the descriptor system.
 *
 * @param cfg The descriptor tunables. Zero values fall back to the package defaults.
 * @param device The native device every descriptor object is created on.
 * @param clock The frame counter used for registry aging and deferred deletion.
 */
func NewDescriptorSystem(cfg *config.DescriptorConfig, device descriptors.NativeDevice, clock descriptors.FrameClock) (*DescriptorSystem, error) {
	if device == nil || clock == nil {
		err := fmt.Errorf("func NewDescriptorSystem - device and clock are required: %w", core.ErrNotInitialized)
		core.LogError(err.Error())
		return nil, err
	}
	policy, err := descriptors.ParseHashPolicy(cfg.HashPolicy)
	if err != nil {
		core.LogError(err.Error())
		return nil, err
	}
	safeFrames := cfg.SafeFrames
	if safeFrames == 0 {
		safeFrames = descriptors.DefaultSafeFrames
	}

	usage := descriptors.NewTypesUsageCache()
	deletion := descriptors.NewDeletionQueue(clock, safeFrames)
	ds := &DescriptorSystem{
		Config:   cfg,
		device:   device,
		deletion: deletion,
		usage:    usage,
		layouts:  descriptors.NewPipelineLayoutCache(device, deletion, usage),
		pools: descriptors.NewPoolsManager(device, clock, deletion, descriptors.PoolsManagerConfig{
			Registry: descriptors.RegistryConfig{
				HashPolicy:     policy,
				MaxSetsPerPool: cfg.MaxSetsPerPool,
			},
			SafeFrames:   safeFrames,
			ReclaimPerGC: cfg.ReclaimPerGC,
		}),
	}
	core.LogInfo("descriptor system initialized (hash policy %s, %d safe frames)", cfg.HashPolicy, safeFrames)
	return ds, nil
}

// Layout returns the pipeline layout for signature, compiling it on first use.
func (ds *DescriptorSystem) Layout(signature *descriptors.LayoutSignature) (*descriptors.PipelineLayout, error) {
	return ds.layouts.Get(signature)
}

// AcquireRegistry leases the registry a frame allocates its sets from.
func (ds *DescriptorSystem) AcquireRegistry() (*descriptors.PoolSetRegistry, error) {
	return ds.pools.Acquire()
}

// ReleaseRegistry hands a registry back once the frame using it was submitted.
func (ds *DescriptorSystem) ReleaseRegistry(r *descriptors.PoolSetRegistry) error {
	return ds.pools.Release(r)
}

/**
 * @brief Updates the descriptor system. Should happen once an update cycle,
 * after the frame counter moved forward.
 *
 * @return The number of registries reclaimed and native objects released.
 */
func (ds *DescriptorSystem) Update() (int, int) {
	reclaimed := ds.pools.GC()
	released := ds.deletion.Sweep()
	return reclaimed, released
}

// SetReclaimPerGC applies a new reclaim rate, typically from a config reload.
func (ds *DescriptorSystem) SetReclaimPerGC(n int) {
	ds.Config.ReclaimPerGC = n
	ds.pools.SetReclaimPerGC(n)
}

func (ds *DescriptorSystem) Stats() descriptors.PoolsManagerStats {
	return ds.pools.Stats()
}

// PendingDeletions is the number of native objects waiting for their frame token.
func (ds *DescriptorSystem) PendingDeletions() int {
	return ds.deletion.Pending()
}

func (ds *DescriptorSystem) LayoutCount() int {
	return ds.layouts.Len()
}

/**
 * @brief Shuts the descriptor system down. The device must be idle.
 */
func (ds *DescriptorSystem) Shutdown() error {
	ds.pools.Shutdown()
	ds.layouts.Destroy()
	released := ds.deletion.Flush()
	core.LogDebug("descriptor system shut down, released %d native objects", released)
	return nil
}
