package descriptors

import (
	"github.com/emirpasic/gods/maps/linkedhashmap"
	"github.com/google/uuid"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

/**
 * @brief Settings shared by every registry a PoolsManager creates.
 */
type RegistryConfig struct {
	/** @brief How layouts are mapped to pool chains. */
	HashPolicy HashPolicy
	/** @brief Allocations per native pool. */
	MaxSetsPerPool uint32
}

// PoolSetRegistry owns one PoolChain per binding shape used during a lease
// (typically one frame of one rendering context). A leased registry belongs
// to a single caller and is not synchronized.
type PoolSetRegistry struct {
	id     uuid.UUID
	device NativeDevice
	clock  FrameClock
	config RegistryConfig

	// uint32 key -> *PoolChain, in creation order
	chains *linkedhashmap.Map

	used          bool
	lastFrameUsed uint64

	// chain and pool counts as of the last Release, owned by the manager lock
	publishedChains int
	publishedPools  int
}

func NewPoolSetRegistry(device NativeDevice, clock FrameClock, config RegistryConfig) *PoolSetRegistry {
	if config.MaxSetsPerPool == 0 {
		config.MaxSetsPerPool = DefaultMaxSetsPerPool
	}
	return &PoolSetRegistry{
		id:            uuid.New(),
		device:        device,
		clock:         clock,
		config:        config,
		chains:        linkedhashmap.New(),
		used:          true,
		lastFrameUsed: clock.FrameCount(),
	}
}

func (r *PoolSetRegistry) ID() uuid.UUID {
	return r.id
}

// AcquireChain returns the chain serving layout's shape, creating it on first use.
func (r *PoolSetRegistry) AcquireChain(layout *CompiledLayout) *PoolChain {
	key := layout.Signature().Key(r.config.HashPolicy)
	if chain, found := r.chains.Get(key); found {
		return chain.(*PoolChain)
	}
	chain := NewPoolChain(r.device, layout, r.config.MaxSetsPerPool)
	r.chains.Put(key, chain)
	core.LogDebug("registry %s: new pool chain for key %d", r.id, key)
	return chain
}

// Allocate allocates the sets of layout from the matching chain.
func (r *PoolSetRegistry) Allocate(layout *CompiledLayout, out []SetHandle) error {
	if !layout.IsCompiled() {
		return ErrLayoutNotCompiled
	}
	return r.AcquireChain(layout).Allocate(layout, out)
}

// Reset resets every chain. Only called when the registry is about to be
// reused, never while a frame still holds it.
func (r *PoolSetRegistry) Reset() error {
	for _, v := range r.chains.Values() {
		if err := v.(*PoolChain).Reset(); err != nil {
			return err
		}
	}
	return nil
}

// SetUsed marks the registry leased or free. Freeing stamps the current frame.
func (r *PoolSetRegistry) SetUsed(used bool) {
	r.used = used
	if !used {
		r.lastFrameUsed = r.clock.FrameCount()
	}
}

func (r *PoolSetRegistry) IsUnused() bool {
	return !r.used
}

// LastFrameUsed is the frame the registry was last released at.
func (r *PoolSetRegistry) LastFrameUsed() uint64 {
	return r.lastFrameUsed
}

func (r *PoolSetRegistry) ChainCount() int {
	return r.chains.Size()
}

// PoolCount is the number of native pools across all chains.
func (r *PoolSetRegistry) PoolCount() int {
	n := 0
	r.chains.Each(func(_ interface{}, v interface{}) {
		n += v.(*PoolChain).PoolCount()
	})
	return n
}

func (r *PoolSetRegistry) destroy(deletion *DeletionQueue, notBefore uint64) {
	r.chains.Each(func(_ interface{}, v interface{}) {
		v.(*PoolChain).Destroy(deletion, notBefore)
	})
	r.chains.Clear()
}
