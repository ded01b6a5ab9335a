package descriptors

import (
	"fmt"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

// DefaultMaxSetsPerPool is how many allocations of its layout a pool is sized for.
const DefaultMaxSetsPerPool uint32 = 256

// AllocationPool is one native descriptor pool dedicated to a single binding
// shape. Its capacity is fixed at creation.
type AllocationPool struct {
	device NativeDevice
	handle PoolHandle
	layout *CompiledLayout

	maxAllocations uint32
	maxSets        uint32

	allocatedSets    uint32
	allocatedSetsMax uint32
}

// NewAllocationPool creates a native pool able to serve maxAllocations
// allocations of layout: every descriptor type the layout uses gets
// uses-per-allocation * maxAllocations slots.
func NewAllocationPool(device NativeDevice, layout *CompiledLayout, maxAllocations uint32) (*AllocationPool, error) {
	if maxAllocations == 0 {
		maxAllocations = DefaultMaxSetsPerPool
	}
	groups := uint32(len(layout.Handles()))
	if groups == 0 {
		groups = 1
	}

	desc := PoolDescription{
		MaxSets:            maxAllocations * groups,
		FreeIndividualSets: true,
	}
	for t := DescriptorType(0); t < DescriptorTypeCount; t++ {
		if used := layout.TypesUsed(t); used > 0 {
			desc.Sizes = append(desc.Sizes, PoolSize{Type: t, Count: used * maxAllocations})
		}
	}

	handle, err := device.CreatePool(desc)
	if err != nil {
		err = fmt.Errorf("failed to create descriptor pool: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return &AllocationPool{
		device:         device,
		handle:         handle,
		layout:         layout,
		maxAllocations: maxAllocations,
		maxSets:        desc.MaxSets,
	}, nil
}

// Allocate tries to allocate one set per group of layout into out. false with
// a nil error means the pool is exhausted.
func (p *AllocationPool) Allocate(layout *CompiledLayout, out []SetHandle) (bool, error) {
	handles := layout.Handles()
	if len(out) < len(handles) {
		return false, ErrOutputTooSmall
	}
	ok, err := p.device.AllocateSets(p.handle, handles, out[:len(handles)])
	if err != nil || !ok {
		return false, err
	}
	if err := p.Track(layout); err != nil {
		return false, err
	}
	return true, nil
}

// Free returns individual sets to the pool.
func (p *AllocationPool) Free(layout *CompiledLayout, sets []SetHandle) error {
	if err := p.device.FreeSets(p.handle, sets); err != nil {
		return err
	}
	return p.TrackRemoveUsage(layout)
}

// Reset invalidates every set allocated from the pool at once. The native
// pool itself is kept.
func (p *AllocationPool) Reset() error {
	if p.handle != 0 {
		if err := p.device.ResetPool(p.handle); err != nil {
			err = fmt.Errorf("failed to reset descriptor pool: %w", err)
			core.LogError(err.Error())
			return err
		}
	}
	p.allocatedSets = 0
	return nil
}

// Track records an allocation of layout.
func (p *AllocationPool) Track(layout *CompiledLayout) error {
	if err := p.checkUsage(layout); err != nil {
		return err
	}
	p.allocatedSets += uint32(len(layout.Handles()))
	p.allocatedSetsMax = max(p.allocatedSets, p.allocatedSetsMax)
	return nil
}

// TrackRemoveUsage records that the sets of one allocation of layout were freed.
func (p *AllocationPool) TrackRemoveUsage(layout *CompiledLayout) error {
	if err := p.checkUsage(layout); err != nil {
		return err
	}
	n := uint32(len(layout.Handles()))
	if n > p.allocatedSets {
		n = p.allocatedSets
	}
	p.allocatedSets -= n
	return nil
}

func (p *AllocationPool) checkUsage(layout *CompiledLayout) error {
	if !trackValidation {
		return nil
	}
	for t := DescriptorType(0); t < DescriptorTypeCount; t++ {
		if p.layout.TypesUsed(t) != layout.TypesUsed(t) {
			return fmt.Errorf("%w: %s used %d times, pool expects %d", ErrLayoutMismatch, t, layout.TypesUsed(t), p.layout.TypesUsed(t))
		}
	}
	return nil
}

// Destroy releases the native pool immediately. Callers go through the
// deletion queue when GPU work may still reference the pool's sets.
func (p *AllocationPool) Destroy() {
	if p.handle != 0 {
		p.device.DestroyPool(p.handle)
		p.handle = 0
	}
}

func (p *AllocationPool) Handle() PoolHandle {
	return p.handle
}

// Capacity is the number of allocations of the pool's layout it can serve.
func (p *AllocationPool) Capacity() uint32 {
	return p.maxAllocations
}

func (p *AllocationPool) MaxSets() uint32 {
	return p.maxSets
}

func (p *AllocationPool) AllocatedSets() uint32 {
	return p.allocatedSets
}

func (p *AllocationPool) AllocatedSetsMax() uint32 {
	return p.allocatedSetsMax
}

func (p *AllocationPool) IsEmpty() bool {
	return p.allocatedSets == 0
}
