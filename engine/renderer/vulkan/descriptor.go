package vulkan

import (
	"sync"

	vk "github.com/goki/vulkan"
	"github.com/pkg/errors"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
)

var ErrUnknownHandle = errors.New("unknown descriptor handle")

/**
 * @brief Image descriptor payload. Mirrors VkDescriptorImageInfo.
 */
type VulkanImageInfo struct {
	Sampler vk.Sampler
	View    vk.ImageView
	Layout  vk.ImageLayout
}

/**
 * @brief Buffer descriptor payload. Mirrors VkDescriptorBufferInfo.
 */
type VulkanBufferInfo struct {
	Buffer vk.Buffer
	Offset vk.DeviceSize
	Range  vk.DeviceSize
}

type VulkanBindingWriter = descriptors.BindingWriter[VulkanImageInfo, VulkanBufferInfo, vk.BufferView]

type VulkanWriteOp = descriptors.WriteOp[VulkanImageInfo, VulkanBufferInfo, vk.BufferView]

type vulkanDescriptorPool struct {
	handle vk.DescriptorPool
	sets   map[descriptors.SetHandle]struct{}
}

// VulkanDescriptorDevice implements descriptors.NativeDevice on a logical
// device. Native objects are kept in handle tables so the pooling layer only
// ever sees opaque integer handles.
type VulkanDescriptorDevice struct {
	context *VulkanContext
	limits  descriptors.DeviceLimits

	mu              sync.Mutex
	nextHandle      uint64
	setLayouts      map[descriptors.SetLayoutHandle]vk.DescriptorSetLayout
	pools           map[descriptors.PoolHandle]*vulkanDescriptorPool
	sets            map[descriptors.SetHandle]vk.DescriptorSet
	pipelineLayouts map[descriptors.PipelineLayoutHandle]vk.PipelineLayout
}

func NewVulkanDescriptorDevice(context *VulkanContext) *VulkanDescriptorDevice {
	return &VulkanDescriptorDevice{
		context:         context,
		limits:          context.Device.DescriptorLimits(),
		setLayouts:      make(map[descriptors.SetLayoutHandle]vk.DescriptorSetLayout),
		pools:           make(map[descriptors.PoolHandle]*vulkanDescriptorPool),
		sets:            make(map[descriptors.SetHandle]vk.DescriptorSet),
		pipelineLayouts: make(map[descriptors.PipelineLayoutHandle]vk.PipelineLayout),
	}
}

func (vd *VulkanDescriptorDevice) handle() uint64 {
	vd.nextHandle++
	return vd.nextHandle
}

func (vd *VulkanDescriptorDevice) logical() vk.Device {
	return vd.context.Device.LogicalDevice
}

func (vd *VulkanDescriptorDevice) Limits() descriptors.DeviceLimits {
	return vd.limits
}

func (vd *VulkanDescriptorDevice) CreateSetLayout(bindings []descriptors.LayoutBinding) (descriptors.SetLayoutHandle, error) {
	vkBindings := setLayoutBindings(bindings)
	createInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(vkBindings)),
		PBindings:    vkBindings,
	}
	createInfo.Deref()

	var layout vk.DescriptorSetLayout
	if err := vd.context.lockPool.SafeCall(DescriptorLayoutManagement, func() error {
		result := vk.CreateDescriptorSetLayout(vd.logical(), &createInfo, vd.context.Allocator, &layout)
		if !VulkanResultIsSuccess(result) {
			return errors.Wrapf(vk.Error(result), "vkCreateDescriptorSetLayout failed with %s", VulkanResultString(result, true))
		}
		return nil
	}); err != nil {
		core.LogError(err.Error())
		return 0, err
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()
	h := descriptors.SetLayoutHandle(vd.handle())
	vd.setLayouts[h] = layout
	return h, nil
}

func (vd *VulkanDescriptorDevice) DestroySetLayout(h descriptors.SetLayoutHandle) {
	vd.mu.Lock()
	layout, ok := vd.setLayouts[h]
	delete(vd.setLayouts, h)
	vd.mu.Unlock()
	if !ok {
		return
	}
	vd.context.lockPool.SafeCall(DescriptorLayoutManagement, func() error {
		vk.DestroyDescriptorSetLayout(vd.logical(), layout, vd.context.Allocator)
		return nil
	})
}

func (vd *VulkanDescriptorDevice) CreatePool(desc descriptors.PoolDescription) (descriptors.PoolHandle, error) {
	createInfo := poolCreateInfo(desc)

	var pool vk.DescriptorPool
	if err := vd.context.lockPool.SafeCall(DescriptorPoolManagement, func() error {
		result := vk.CreateDescriptorPool(vd.logical(), &createInfo, vd.context.Allocator, &pool)
		if !VulkanResultIsSuccess(result) {
			return errors.Wrapf(vk.Error(result), "vkCreateDescriptorPool failed with %s", VulkanResultString(result, true))
		}
		return nil
	}); err != nil {
		core.LogError(err.Error())
		return 0, err
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()
	h := descriptors.PoolHandle(vd.handle())
	vd.pools[h] = &vulkanDescriptorPool{handle: pool, sets: make(map[descriptors.SetHandle]struct{})}
	return h, nil
}

// forgetSets drops the handle table entries of every set of p. Callers hold vd.mu.
func (vd *VulkanDescriptorDevice) forgetSets(p *vulkanDescriptorPool) {
	for s := range p.sets {
		delete(vd.sets, s)
	}
	clear(p.sets)
}

func (vd *VulkanDescriptorDevice) ResetPool(h descriptors.PoolHandle) error {
	vd.mu.Lock()
	p, ok := vd.pools[h]
	if ok {
		vd.forgetSets(p)
	}
	vd.mu.Unlock()
	if !ok {
		return errors.Wrapf(ErrUnknownHandle, "pool %d", h)
	}

	return vd.context.lockPool.SafeCall(DescriptorPoolManagement, func() error {
		result := vk.ResetDescriptorPool(vd.logical(), p.handle, 0)
		if !VulkanResultIsSuccess(result) {
			return errors.Wrapf(vk.Error(result), "vkResetDescriptorPool failed with %s", VulkanResultString(result, true))
		}
		return nil
	})
}

func (vd *VulkanDescriptorDevice) DestroyPool(h descriptors.PoolHandle) {
	vd.mu.Lock()
	p, ok := vd.pools[h]
	if ok {
		vd.forgetSets(p)
		delete(vd.pools, h)
	}
	vd.mu.Unlock()
	if !ok {
		return
	}
	vd.context.lockPool.SafeCall(DescriptorPoolManagement, func() error {
		vk.DestroyDescriptorPool(vd.logical(), p.handle, vd.context.Allocator)
		return nil
	})
}

// AllocateSets reports pool exhaustion (out of pool memory or fragmentation)
// as false with a nil error. Every other failure is returned.
func (vd *VulkanDescriptorDevice) AllocateSets(h descriptors.PoolHandle, layouts []descriptors.SetLayoutHandle, out []descriptors.SetHandle) (bool, error) {
	if len(layouts) == 0 {
		return true, nil
	}
	vd.mu.Lock()
	p, ok := vd.pools[h]
	vkLayouts := make([]vk.DescriptorSetLayout, len(layouts))
	for i, lh := range layouts {
		l, found := vd.setLayouts[lh]
		if !found {
			vd.mu.Unlock()
			return false, errors.Wrapf(ErrUnknownHandle, "set layout %d", lh)
		}
		vkLayouts[i] = l
	}
	vd.mu.Unlock()
	if !ok {
		return false, errors.Wrapf(ErrUnknownHandle, "pool %d", h)
	}

	allocateInfo := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     p.handle,
		DescriptorSetCount: uint32(len(vkLayouts)),
		PSetLayouts:        vkLayouts,
	}
	allocateInfo.Deref()

	sets := make([]vk.DescriptorSet, len(vkLayouts))
	allocated := false
	if err := vd.context.lockPool.SafeCall(DescriptorSetManagement, func() error {
		var err error
		allocated, err = allocationOutcome(vk.AllocateDescriptorSets(vd.logical(), &allocateInfo, &sets[0]))
		return err
	}); err != nil {
		core.LogError(err.Error())
		return false, err
	}
	if !allocated {
		return false, nil
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()
	for i, s := range sets {
		sh := descriptors.SetHandle(vd.handle())
		vd.sets[sh] = s
		p.sets[sh] = struct{}{}
		out[i] = sh
	}
	return true, nil
}

func (vd *VulkanDescriptorDevice) FreeSets(h descriptors.PoolHandle, sets []descriptors.SetHandle) error {
	if len(sets) == 0 {
		return nil
	}
	vd.mu.Lock()
	p, ok := vd.pools[h]
	if !ok {
		vd.mu.Unlock()
		return errors.Wrapf(ErrUnknownHandle, "pool %d", h)
	}
	vkSets := make([]vk.DescriptorSet, len(sets))
	for i, s := range sets {
		set, found := vd.sets[s]
		if !found {
			vd.mu.Unlock()
			return errors.Wrapf(ErrUnknownHandle, "set %d", s)
		}
		vkSets[i] = set
	}
	for _, s := range sets {
		delete(vd.sets, s)
		delete(p.sets, s)
	}
	vd.mu.Unlock()

	return vd.context.lockPool.SafeCall(DescriptorSetManagement, func() error {
		result := vk.FreeDescriptorSets(vd.logical(), p.handle, uint32(len(vkSets)), &vkSets[0])
		if !VulkanResultIsSuccess(result) {
			return errors.Wrapf(vk.Error(result), "vkFreeDescriptorSets failed with %s", VulkanResultString(result, true))
		}
		return nil
	})
}

func (vd *VulkanDescriptorDevice) CreatePipelineLayout(setLayouts []descriptors.SetLayoutHandle) (descriptors.PipelineLayoutHandle, error) {
	if len(setLayouts) > VULKAN_MAX_BOUND_DESCRIPTOR_SETS {
		err := errors.Errorf("cannot have more than %d descriptor sets in a pipeline layout. Passed count: %d", VULKAN_MAX_BOUND_DESCRIPTOR_SETS, len(setLayouts))
		core.LogError(err.Error())
		return 0, err
	}

	vd.mu.Lock()
	vkLayouts := make([]vk.DescriptorSetLayout, len(setLayouts))
	for i, lh := range setLayouts {
		l, found := vd.setLayouts[lh]
		if !found {
			vd.mu.Unlock()
			return 0, errors.Wrapf(ErrUnknownHandle, "set layout %d", lh)
		}
		vkLayouts[i] = l
	}
	vd.mu.Unlock()

	createInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: uint32(len(vkLayouts)),
		PSetLayouts:    vkLayouts,
	}
	createInfo.Deref()

	var layout vk.PipelineLayout
	if err := vd.context.lockPool.SafeCall(PipelineManagement, func() error {
		result := vk.CreatePipelineLayout(vd.logical(), &createInfo, vd.context.Allocator, &layout)
		if !VulkanResultIsSuccess(result) {
			return errors.Wrapf(vk.Error(result), "vkCreatePipelineLayout failed with %s", VulkanResultString(result, true))
		}
		return nil
	}); err != nil {
		core.LogError(err.Error())
		return 0, err
	}

	vd.mu.Lock()
	defer vd.mu.Unlock()
	h := descriptors.PipelineLayoutHandle(vd.handle())
	vd.pipelineLayouts[h] = layout
	return h, nil
}

func (vd *VulkanDescriptorDevice) DestroyPipelineLayout(h descriptors.PipelineLayoutHandle) {
	vd.mu.Lock()
	layout, ok := vd.pipelineLayouts[h]
	delete(vd.pipelineLayouts, h)
	vd.mu.Unlock()
	if !ok {
		return
	}
	vd.context.lockPool.SafeCall(PipelineManagement, func() error {
		vk.DestroyPipelineLayout(vd.logical(), layout, vd.context.Allocator)
		return nil
	})
}

// PipelineLayout resolves a handle to the native object, for binding at record time.
func (vd *VulkanDescriptorDevice) PipelineLayout(h descriptors.PipelineLayoutHandle) (vk.PipelineLayout, bool) {
	vd.mu.Lock()
	defer vd.mu.Unlock()
	l, ok := vd.pipelineLayouts[h]
	return l, ok
}

// DescriptorSet resolves a handle to the native set, for binding at record time.
func (vd *VulkanDescriptorDevice) DescriptorSet(h descriptors.SetHandle) (vk.DescriptorSet, bool) {
	vd.mu.Lock()
	defer vd.mu.Unlock()
	s, ok := vd.sets[h]
	return s, ok
}

// UpdateSets translates a BindingWriter's write list into vkUpdateDescriptorSets.
func (vd *VulkanDescriptorDevice) UpdateSets(h descriptors.SetHandle, writes []VulkanWriteOp) error {
	set, ok := vd.DescriptorSet(h)
	if !ok {
		return errors.Wrapf(ErrUnknownHandle, "set %d", h)
	}
	if len(writes) == 0 {
		return nil
	}

	vkWrites, err := writeDescriptorSets(set, writes)
	if err != nil {
		return err
	}

	return vd.context.lockPool.SafeCall(DescriptorSetManagement, func() error {
		vk.UpdateDescriptorSets(vd.logical(), uint32(len(vkWrites)), vkWrites, 0, nil)
		return nil
	})
}

func setLayoutBindings(bindings []descriptors.LayoutBinding) []vk.DescriptorSetLayoutBinding {
	vkBindings := make([]vk.DescriptorSetLayoutBinding, len(bindings))
	for i, b := range bindings {
		vkBindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         b.Binding,
			DescriptorType:  vk.DescriptorType(b.Type),
			DescriptorCount: b.Count,
			StageFlags:      vk.ShaderStageFlags(b.Stages),
		}
		vkBindings[i].Deref()
	}
	return vkBindings
}

func poolCreateInfo(desc descriptors.PoolDescription) vk.DescriptorPoolCreateInfo {
	sizes := make([]vk.DescriptorPoolSize, len(desc.Sizes))
	for i, s := range desc.Sizes {
		sizes[i] = vk.DescriptorPoolSize{
			Type:            vk.DescriptorType(s.Type),
			DescriptorCount: s.Count,
		}
		sizes[i].Deref()
	}
	createInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       desc.MaxSets,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	if desc.FreeIndividualSets {
		createInfo.Flags = vk.DescriptorPoolCreateFlags(vk.DescriptorPoolCreateFreeDescriptorSetBit)
	}
	createInfo.Deref()
	return createInfo
}

// allocationOutcome maps a vkAllocateDescriptorSets result. Pool exhaustion
// is false with a nil error so the chain moves on to its next pool.
func allocationOutcome(result vk.Result) (bool, error) {
	switch {
	case vulkanPoolExhausted(result):
		return false, nil
	case !VulkanResultIsSuccess(result):
		return false, errors.Wrapf(vk.Error(result), "vkAllocateDescriptorSets failed with %s", VulkanResultString(result, true))
	}
	return true, nil
}

// writeDescriptorSets builds one VkWriteDescriptorSet per write, all targeting set.
func writeDescriptorSets(set vk.DescriptorSet, writes []VulkanWriteOp) ([]vk.WriteDescriptorSet, error) {
	vkWrites := make([]vk.WriteDescriptorSet, len(writes))
	for i, w := range writes {
		vkWrites[i] = vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          set,
			DstBinding:      w.Binding,
			DstArrayElement: 0,
			DescriptorCount: w.Count,
			DescriptorType:  vk.DescriptorType(w.Type),
		}
		switch w.Type.Info() {
		case descriptors.InfoKindImage:
			images := make([]vk.DescriptorImageInfo, len(w.ImageInfo))
			for j, info := range w.ImageInfo {
				images[j] = vk.DescriptorImageInfo{Sampler: info.Sampler, ImageView: info.View, ImageLayout: info.Layout}
				images[j].Deref()
			}
			vkWrites[i].PImageInfo = images
		case descriptors.InfoKindBuffer:
			buffers := make([]vk.DescriptorBufferInfo, len(w.BufferInfo))
			for j, info := range w.BufferInfo {
				buffers[j] = vk.DescriptorBufferInfo{Buffer: info.Buffer, Offset: info.Offset, Range: info.Range}
				buffers[j].Deref()
			}
			vkWrites[i].PBufferInfo = buffers
		case descriptors.InfoKindTexelView:
			vkWrites[i].PTexelBufferView = w.TexelViews
		default:
			return nil, errors.Wrapf(descriptors.ErrUnknownDescriptorType, "binding %d", w.Binding)
		}
		vkWrites[i].Deref()
	}
	return vkWrites, nil
}
