// Package headless is an in-memory descriptors.NativeDevice. It enforces the
// same capacity rules a driver does for descriptor pools, which makes it a
// stand-in for the GPU in tests and in the frame-loop simulation.
package headless

import (
	"errors"
	"fmt"
	"sync"

	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
)

var ErrUnknownHandle = errors.New("unknown native handle")

// ImageInfo, BufferInfo and TexelView are the resource infos written through
// descriptors.BindingWriter when running headless.
type ImageInfo struct {
	Sampler uint64
	View    uint64
	Layout  uint32
}

type BufferInfo struct {
	Buffer uint64
	Offset uint64
	Range  uint64
}

type TexelView uint64

type Writer = descriptors.BindingWriter[ImageInfo, BufferInfo, TexelView]

type setLayout struct {
	bindings []descriptors.LayoutBinding
	types    descriptors.TypesHistogram
}

type pool struct {
	desc      descriptors.PoolDescription
	remaining descriptors.TypesHistogram
	setsLeft  uint32
	live      map[descriptors.SetHandle]descriptors.SetLayoutHandle
}

/**
 * @brief Counters of every native call made against the device.
 */
type Counters struct {
	SetLayoutsCreated        int
	SetLayoutsDestroyed      int
	PoolsCreated             int
	PoolsDestroyed           int
	PoolResets               int
	SetsAllocated            int
	SetsFreed                int
	AllocationsRefused       int
	PipelineLayoutsCreated   int
	PipelineLayoutsDestroyed int
	DescriptorWrites         int
}

type Device struct {
	mu         sync.Mutex
	limits     descriptors.DeviceLimits
	nextHandle uint64

	setLayouts      map[descriptors.SetLayoutHandle]*setLayout
	pools           map[descriptors.PoolHandle]*pool
	pipelineLayouts map[descriptors.PipelineLayoutHandle][]descriptors.SetLayoutHandle
	sets            map[descriptors.SetHandle]descriptors.PoolHandle

	counters Counters
	failNext error
}

// DefaultLimits mirrors the guaranteed minimums of a desktop class GPU.
func DefaultLimits() descriptors.DeviceLimits {
	return descriptors.DeviceLimits{
		MaxSamplers:              4000,
		MaxUniformBuffers:        180,
		MaxUniformBuffersDynamic: 15,
		MaxStorageBuffers:        180,
		MaxStorageBuffersDynamic: 8,
		MaxSampledImages:         4000,
		MaxStorageImages:         180,
		MaxInputAttachments:      8,
	}
}

func NewDevice(limits descriptors.DeviceLimits) *Device {
	return &Device{
		limits:          limits,
		setLayouts:      make(map[descriptors.SetLayoutHandle]*setLayout),
		pools:           make(map[descriptors.PoolHandle]*pool),
		pipelineLayouts: make(map[descriptors.PipelineLayoutHandle][]descriptors.SetLayoutHandle),
		sets:            make(map[descriptors.SetHandle]descriptors.PoolHandle),
	}
}

func (d *Device) handle() uint64 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Device) Limits() descriptors.DeviceLimits {
	return d.limits
}

// FailNextAllocation makes the next AllocateSets call fail with err, the way a
// lost device would.
func (d *Device) FailNextAllocation(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.failNext = err
}

func (d *Device) Counters() Counters {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.counters
}

// LivePools is the number of pools created and not yet destroyed.
func (d *Device) LivePools() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pools)
}

func (d *Device) LiveSetLayouts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.setLayouts)
}

func (d *Device) CreateSetLayout(bindings []descriptors.LayoutBinding) (descriptors.SetLayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	l := &setLayout{bindings: append([]descriptors.LayoutBinding(nil), bindings...)}
	seen := make(map[uint32]bool, len(bindings))
	for _, b := range bindings {
		if seen[b.Binding] {
			return 0, fmt.Errorf("duplicate binding %d in set layout", b.Binding)
		}
		seen[b.Binding] = true
		l.types[b.Type] += b.Count
	}
	h := descriptors.SetLayoutHandle(d.handle())
	d.setLayouts[h] = l
	d.counters.SetLayoutsCreated++
	return h, nil
}

func (d *Device) DestroySetLayout(h descriptors.SetLayoutHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.setLayouts[h]; ok {
		delete(d.setLayouts, h)
		d.counters.SetLayoutsDestroyed++
	}
}

func (d *Device) CreatePool(desc descriptors.PoolDescription) (descriptors.PoolHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if desc.MaxSets == 0 {
		return 0, errors.New("pool must allow at least one set")
	}
	p := &pool{desc: desc, live: make(map[descriptors.SetHandle]descriptors.SetLayoutHandle)}
	p.reset()
	h := descriptors.PoolHandle(d.handle())
	d.pools[h] = p
	d.counters.PoolsCreated++
	return h, nil
}

func (p *pool) reset() {
	p.remaining = descriptors.TypesHistogram{}
	for _, s := range p.desc.Sizes {
		p.remaining[s.Type] += s.Count
	}
	p.setsLeft = p.desc.MaxSets
	clear(p.live)
}

func (d *Device) ResetPool(h descriptors.PoolHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pools[h]
	if !ok {
		return fmt.Errorf("%w: pool %d", ErrUnknownHandle, h)
	}
	for s := range p.live {
		delete(d.sets, s)
	}
	p.reset()
	d.counters.PoolResets++
	return nil
}

func (d *Device) DestroyPool(h descriptors.PoolHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pools[h]
	if !ok {
		return
	}
	for s := range p.live {
		delete(d.sets, s)
	}
	delete(d.pools, h)
	d.counters.PoolsDestroyed++
}

func (d *Device) AllocateSets(h descriptors.PoolHandle, layouts []descriptors.SetLayoutHandle, out []descriptors.SetHandle) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.failNext; err != nil {
		d.failNext = nil
		return false, err
	}
	p, ok := d.pools[h]
	if !ok {
		return false, fmt.Errorf("%w: pool %d", ErrUnknownHandle, h)
	}

	var need descriptors.TypesHistogram
	for _, lh := range layouts {
		l, ok := d.setLayouts[lh]
		if !ok {
			return false, fmt.Errorf("%w: set layout %d", ErrUnknownHandle, lh)
		}
		for t, c := range l.types {
			need[t] += c
		}
	}
	if uint32(len(layouts)) > p.setsLeft {
		d.counters.AllocationsRefused++
		return false, nil
	}
	for t, c := range need {
		if c > p.remaining[t] {
			d.counters.AllocationsRefused++
			return false, nil
		}
	}

	for t, c := range need {
		p.remaining[t] -= c
	}
	p.setsLeft -= uint32(len(layouts))
	for i, lh := range layouts {
		s := descriptors.SetHandle(d.handle())
		p.live[s] = lh
		d.sets[s] = h
		out[i] = s
	}
	d.counters.SetsAllocated += len(layouts)
	return true, nil
}

func (d *Device) FreeSets(h descriptors.PoolHandle, sets []descriptors.SetHandle) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	p, ok := d.pools[h]
	if !ok {
		return fmt.Errorf("%w: pool %d", ErrUnknownHandle, h)
	}
	if !p.desc.FreeIndividualSets {
		return errors.New("pool was not created with individual set freeing")
	}
	for _, s := range sets {
		lh, ok := p.live[s]
		if !ok {
			return fmt.Errorf("%w: set %d", ErrUnknownHandle, s)
		}
		if l, ok := d.setLayouts[lh]; ok {
			for t, c := range l.types {
				p.remaining[t] += c
			}
		}
		p.setsLeft++
		delete(p.live, s)
		delete(d.sets, s)
		d.counters.SetsFreed++
	}
	return nil
}

func (d *Device) CreatePipelineLayout(setLayouts []descriptors.SetLayoutHandle) (descriptors.PipelineLayoutHandle, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, lh := range setLayouts {
		if _, ok := d.setLayouts[lh]; !ok {
			return 0, fmt.Errorf("%w: set layout %d", ErrUnknownHandle, lh)
		}
	}
	h := descriptors.PipelineLayoutHandle(d.handle())
	d.pipelineLayouts[h] = append([]descriptors.SetLayoutHandle(nil), setLayouts...)
	d.counters.PipelineLayoutsCreated++
	return h, nil
}

func (d *Device) DestroyPipelineLayout(h descriptors.PipelineLayoutHandle) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pipelineLayouts[h]; ok {
		delete(d.pipelineLayouts, h)
		d.counters.PipelineLayoutsDestroyed++
	}
}

// UpdateSets validates and records a write list against set, standing in for
// vkUpdateDescriptorSets.
func (d *Device) UpdateSets(set descriptors.SetHandle, writes []descriptors.WriteOp[ImageInfo, BufferInfo, TexelView]) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.sets[set]; !ok {
		return fmt.Errorf("%w: set %d", ErrUnknownHandle, set)
	}
	for _, w := range writes {
		var n int
		switch w.Type.Info() {
		case descriptors.InfoKindImage:
			n = len(w.ImageInfo)
		case descriptors.InfoKindBuffer:
			n = len(w.BufferInfo)
		case descriptors.InfoKindTexelView:
			n = len(w.TexelViews)
		}
		if uint32(n) != w.Count {
			return fmt.Errorf("write to binding %d carries %d infos, expected %d", w.Binding, n, w.Count)
		}
	}
	d.counters.DescriptorWrites += len(writes)
	return nil
}
