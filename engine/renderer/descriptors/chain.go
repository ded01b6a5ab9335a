package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

// PoolChain is a growable sequence of AllocationPools sharing one binding
// shape. New allocations come from the pool at the cursor; when it is full
// the cursor moves on, appending a pool if the chain is at its end.
type PoolChain struct {
	device         NativeDevice
	layout         *CompiledLayout
	maxAllocations uint32
	pools          []*AllocationPool
	current        int
	allocations    uint64
}

func NewPoolChain(device NativeDevice, layout *CompiledLayout, maxAllocations uint32) *PoolChain {
	return &PoolChain{
		device:         device,
		layout:         layout,
		maxAllocations: maxAllocations,
	}
}

// Allocate fills out with one set per group of layout. Layouts without groups
// succeed without touching any pool.
func (pc *PoolChain) Allocate(layout *CompiledLayout, out []SetHandle) error {
	if !layout.IsCompiled() {
		return ErrLayoutNotCompiled
	}
	if len(layout.Handles()) == 0 {
		return nil
	}
	created := false
	if len(pc.pools) == 0 {
		if _, err := pc.pushNewPool(); err != nil {
			return err
		}
		created = true
	}

	for {
		ok, err := pc.pools[pc.current].Allocate(layout, out)
		if err != nil {
			return err
		}
		if ok {
			pc.allocations++
			return nil
		}
		if created {
			// a pool sized for this shape refused it straight away, growing won't help
			return fmt.Errorf("%w: %d sets", ErrPoolCannotSatisfy, len(layout.Handles()))
		}
		if created, err = pc.advance(); err != nil {
			return err
		}
	}
}

// advance moves the cursor to the next pool, appending one at the end of the
// chain. It reports whether a pool was created.
func (pc *PoolChain) advance() (bool, error) {
	if pc.current+1 < len(pc.pools) {
		pc.current++
		return false, nil
	}
	if _, err := pc.pushNewPool(); err != nil {
		return false, err
	}
	return true, nil
}

func (pc *PoolChain) pushNewPool() (*AllocationPool, error) {
	pool, err := NewAllocationPool(pc.device, pc.layout, pc.maxAllocations)
	if err != nil {
		return nil, err
	}
	pc.pools = append(pc.pools, pool)
	pc.current = len(pc.pools) - 1
	core.LogDebug("descriptor pool chain (usage id %d) grew to %d pools", pc.layout.Signature().UsageID(), len(pc.pools))
	return pool, nil
}

// Reset resets every pool and rewinds the cursor to the first one.
func (pc *PoolChain) Reset() error {
	for _, pool := range pc.pools {
		if err := pool.Reset(); err != nil {
			return err
		}
	}
	pc.current = 0
	return nil
}

// Destroy hands every pool to the deletion queue with the given frame token.
func (pc *PoolChain) Destroy(deletion *DeletionQueue, notBefore uint64) {
	for _, pool := range pc.pools {
		p := pool
		deletion.EnqueueAt(ResourcePool, notBefore, p.Destroy)
	}
	pc.pools = nil
	pc.current = 0
}

func (pc *PoolChain) PoolCount() int {
	return len(pc.pools)
}

// CurrentIndex is the position of the pool new allocations are served from.
func (pc *PoolChain) CurrentIndex() int {
	return pc.current
}

func (pc *PoolChain) Pools() []*AllocationPool {
	return pc.pools
}

// Allocations is the number of successful allocations since creation.
func (pc *PoolChain) Allocations() uint64 {
	return pc.allocations
}
