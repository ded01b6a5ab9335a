package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-descriptors/engine/config"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
	"github.com/spaghettifunk/anima-descriptors/engine/systems"
)

// VulkanDescriptorBackend plugs the descriptor system into a renderer that
// already owns a Vulkan instance and logical device.
type VulkanDescriptorBackend struct {
	FrameNumber *core.FrameCounter

	context *VulkanContext
	device  *VulkanDescriptorDevice
	system  *systems.DescriptorSystem
}

func NewVulkanDescriptorBackend(physical vk.PhysicalDevice, logical vk.Device, allocator *vk.AllocationCallbacks, cfg config.DescriptorConfig) (*VulkanDescriptorBackend, error) {
	context, err := NewVulkanContext(physical, logical, allocator)
	if err != nil {
		return nil, err
	}

	if cfg.MaxSetsPerPool == 0 {
		cfg.MaxSetsPerPool = VULKAN_DESCRIPTOR_POOL_MAX_SETS
	}
	if cfg.SafeFrames == 0 {
		cfg.SafeFrames = VULKAN_RESOURCE_DELETE_SAFE_FRAMES_COUNT
	}

	frames := core.NewFrameCounter()
	device := NewVulkanDescriptorDevice(context)
	system, err := systems.NewDescriptorSystem(&cfg, device, frames)
	if err != nil {
		return nil, err
	}

	limits := device.Limits()
	core.LogInfo("descriptor limits: %d samplers, %d uniform buffers (%d dynamic), %d storage buffers (%d dynamic), %d sampled images, %d storage images, %d input attachments",
		limits.MaxSamplers, limits.MaxUniformBuffers, limits.MaxUniformBuffersDynamic, limits.MaxStorageBuffers,
		limits.MaxStorageBuffersDynamic, limits.MaxSampledImages, limits.MaxStorageImages, limits.MaxInputAttachments)

	return &VulkanDescriptorBackend{
		FrameNumber: frames,
		context:     context,
		device:      device,
		system:      system,
	}, nil
}

func (vb *VulkanDescriptorBackend) Device() *VulkanDescriptorDevice {
	return vb.device
}

func (vb *VulkanDescriptorBackend) System() *systems.DescriptorSystem {
	return vb.system
}

// NewBindingWriter returns a writer for sets of the given shader stage.
func (vb *VulkanDescriptorBackend) NewBindingWriter(info *descriptors.ShaderDescriptorInfo) (*VulkanBindingWriter, error) {
	return descriptors.NewBindingWriter[VulkanImageInfo, VulkanBufferInfo, vk.BufferView](info)
}

// FlushBindings pushes a dirty writer's state to set.
func (vb *VulkanDescriptorBackend) FlushBindings(set descriptors.SetHandle, w *VulkanBindingWriter) error {
	if !w.IsDirty() {
		return nil
	}
	if err := vb.device.UpdateSets(set, w.Writes()); err != nil {
		core.LogError(err.Error())
		return err
	}
	w.ClearDirty()
	return nil
}

// EndFrame is called once the frame was submitted: the frame counter moves
// forward and the descriptor system reclaims what is now safe to destroy.
func (vb *VulkanDescriptorBackend) EndFrame() {
	vb.FrameNumber.Advance()
	reclaimed, released := vb.system.Update()
	if reclaimed > 0 || released > 0 {
		core.LogDebug("frame %d: reclaimed %d registries, released %d native objects", vb.FrameNumber.FrameCount(), reclaimed, released)
	}
}

// Shutdown must be called after vkDeviceWaitIdle.
func (vb *VulkanDescriptorBackend) Shutdown() error {
	return vb.system.Shutdown()
}
