package descriptors

import (
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

// CompiledLayout owns the native set layouts built from a LayoutSignature,
// one per group, and the allocation template that references them.
// It is immutable once compiled.
type CompiledLayout struct {
	device    NativeDevice
	deletion  *DeletionQueue
	usage     *TypesUsageCache
	signature *LayoutSignature
	handles   []SetLayoutHandle
	compiled  bool
	destroyed bool
}

func NewCompiledLayout(device NativeDevice, deletion *DeletionQueue, usage *TypesUsageCache, signature *LayoutSignature) *CompiledLayout {
	if usage == nil {
		usage = DefaultTypesUsageCache()
	}
	return &CompiledLayout{
		device:    device,
		deletion:  deletion,
		usage:     usage,
		signature: signature.Clone(),
	}
}

// Compile validates the shape against the device limits and creates the
// native layouts. It can only be called once.
func (cl *CompiledLayout) Compile() error {
	if cl.compiled {
		return ErrLayoutAlreadyCompiled
	}

	types := cl.signature.Types()
	if err := cl.device.Limits().CheckLimits(&types); err != nil {
		core.LogError(err.Error())
		return err
	}

	sets := cl.signature.Sets()
	handles := make([]SetLayoutHandle, 0, len(sets))
	for i, set := range sets {
		h, err := cl.device.CreateSetLayout(set.Bindings)
		if err != nil {
			// nothing has been handed out yet, so no GPU work can reference these
			for _, created := range handles {
				cl.device.DestroySetLayout(created)
			}
			err = fmt.Errorf("failed to create descriptor set layout %d: %w", i, err)
			core.LogError(err.Error())
			return err
		}
		handles = append(handles, h)
	}

	cl.signature.ComputeUsageID(cl.usage)
	cl.handles = handles
	cl.compiled = true
	return nil
}

// Handles is the allocation template: one native layout per group, in group order.
func (cl *CompiledLayout) Handles() []SetLayoutHandle {
	return cl.handles
}

func (cl *CompiledLayout) Signature() *LayoutSignature {
	return cl.signature
}

func (cl *CompiledLayout) IsCompiled() bool {
	return cl.compiled
}

// TypesUsed returns the number of descriptors of type t the layout uses.
func (cl *CompiledLayout) TypesUsed(t DescriptorType) uint32 {
	return cl.signature.TypesUsed(t)
}

// Destroy hands every native layout to the deletion queue. In-flight command
// buffers may still reference them.
func (cl *CompiledLayout) Destroy() {
	if cl.destroyed {
		return
	}
	cl.destroyed = true
	for _, h := range cl.handles {
		handle := h
		cl.deletion.Enqueue(ResourceSetLayout, func() { cl.device.DestroySetLayout(handle) })
	}
	cl.handles = nil
}

/**
 * @brief A compiled descriptor layout and the native pipeline layout built on top of it.
 */
type PipelineLayout struct {
	device   NativeDevice
	deletion *DeletionQueue
	layout   *CompiledLayout
	handle   PipelineLayoutHandle
}

func NewPipelineLayout(device NativeDevice, deletion *DeletionQueue, usage *TypesUsageCache, signature *LayoutSignature) (*PipelineLayout, error) {
	layout := NewCompiledLayout(device, deletion, usage, signature)
	if err := layout.Compile(); err != nil {
		return nil, err
	}
	handle, err := device.CreatePipelineLayout(layout.Handles())
	if err != nil {
		layout.Destroy()
		err = fmt.Errorf("failed to create pipeline layout: %w", err)
		core.LogError(err.Error())
		return nil, err
	}
	return &PipelineLayout{
		device:   device,
		deletion: deletion,
		layout:   layout,
		handle:   handle,
	}, nil
}

func (pl *PipelineLayout) Handle() PipelineLayoutHandle {
	return pl.handle
}

func (pl *PipelineLayout) Layout() *CompiledLayout {
	return pl.layout
}

func (pl *PipelineLayout) Destroy() {
	if pl.handle != 0 {
		handle := pl.handle
		pl.deletion.Enqueue(ResourcePipelineLayout, func() { pl.device.DestroyPipelineLayout(handle) })
		pl.handle = 0
	}
	pl.layout.Destroy()
}

// PipelineLayoutCache builds a PipelineLayout once per distinct binding shape.
type PipelineLayoutCache struct {
	mu       sync.Mutex
	device   NativeDevice
	deletion *DeletionQueue
	usage    *TypesUsageCache
	buckets  map[uint32][]*PipelineLayout
	count    int
}

func NewPipelineLayoutCache(device NativeDevice, deletion *DeletionQueue, usage *TypesUsageCache) *PipelineLayoutCache {
	if usage == nil {
		usage = DefaultTypesUsageCache()
	}
	return &PipelineLayoutCache{
		device:   device,
		deletion: deletion,
		usage:    usage,
		buckets:  make(map[uint32][]*PipelineLayout),
	}
}

// Get returns the cached layout equal to signature, compiling a new one if needed.
func (c *PipelineLayoutCache) Get(signature *LayoutSignature) (*PipelineLayout, error) {
	owned := signature.Clone()
	owned.ComputeUsageID(c.usage)

	c.mu.Lock()
	defer c.mu.Unlock()

	hash := owned.Hash()
	for _, pl := range c.buckets[hash] {
		if pl.layout.signature.Equals(owned) {
			return pl, nil
		}
	}

	pl, err := NewPipelineLayout(c.device, c.deletion, c.usage, owned)
	if err != nil {
		return nil, err
	}
	c.buckets[hash] = append(c.buckets[hash], pl)
	c.count++
	core.LogDebug("compiled pipeline layout #%d (usage id %d, %d sets)", c.count, owned.UsageID(), owned.SetCount())
	return pl, nil
}

func (c *PipelineLayoutCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.count
}

// Destroy releases every cached layout through the deletion queue.
func (c *PipelineLayoutCache) Destroy() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, bucket := range c.buckets {
		for _, pl := range bucket {
			pl.Destroy()
		}
	}
	c.buckets = make(map[uint32][]*PipelineLayout)
	c.count = 0
}
