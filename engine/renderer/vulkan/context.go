package vulkan

import (
	vk "github.com/goki/vulkan"
	"github.com/spaghettifunk/anima-descriptors/engine/core"
)

// VulkanContext is the part of the renderer state the descriptor backend
// needs: the device pair, the host allocator and the lock groups.
type VulkanContext struct {
	Allocator *vk.AllocationCallbacks

	Device *VulkanDevice

	lockPool *VulkanLockPool
}

func NewVulkanContext(physical vk.PhysicalDevice, logical vk.Device, allocator *vk.AllocationCallbacks) (*VulkanContext, error) {
	if logical == nil {
		err := core.ErrNotInitialized
		core.LogError("cannot create vulkan context: %s", err)
		return nil, err
	}
	return &VulkanContext{
		Allocator: allocator,
		Device:    NewVulkanDevice(physical, logical),
		lockPool:  NewVulkanLockPool(),
	}, nil
}
