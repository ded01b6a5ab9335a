package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-descriptors/engine/renderer/descriptors"
)

type VulkanDevice struct {
	PhysicalDevice vk.PhysicalDevice
	LogicalDevice  vk.Device

	Properties vk.PhysicalDeviceProperties
}

func NewVulkanDevice(physical vk.PhysicalDevice, logical vk.Device) *VulkanDevice {
	d := &VulkanDevice{
		PhysicalDevice: physical,
		LogicalDevice:  logical,
	}
	if physical != nil {
		vk.GetPhysicalDeviceProperties(physical, &d.Properties)
		d.Properties.Deref()
		d.Properties.Limits.Deref()
	}
	return d
}

// DescriptorLimits extracts the per-pipeline-layout descriptor limits.
func (vd *VulkanDevice) DescriptorLimits() descriptors.DeviceLimits {
	return descriptorLimitsFrom(vd.Properties.Limits)
}

func descriptorLimitsFrom(limits vk.PhysicalDeviceLimits) descriptors.DeviceLimits {
	return descriptors.DeviceLimits{
		MaxSamplers:              limits.MaxDescriptorSetSamplers,
		MaxUniformBuffers:        limits.MaxDescriptorSetUniformBuffers,
		MaxUniformBuffersDynamic: limits.MaxDescriptorSetUniformBuffersDynamic,
		MaxStorageBuffers:        limits.MaxDescriptorSetStorageBuffers,
		MaxStorageBuffersDynamic: limits.MaxDescriptorSetStorageBuffersDynamic,
		MaxSampledImages:         limits.MaxDescriptorSetSampledImages,
		MaxStorageImages:         limits.MaxDescriptorSetStorageImages,
		MaxInputAttachments:      limits.MaxDescriptorSetInputAttachments,
	}
}
