package vulkan

import "sync"

type LockGroup uint8

const (
	DescriptorLayoutManagement LockGroup = iota
	DescriptorPoolManagement
	DescriptorSetManagement
	PipelineManagement
	lockGroupCount
)

func (g LockGroup) String() string {
	switch g {
	case DescriptorLayoutManagement:
		return "descriptor_layout_management"
	case DescriptorPoolManagement:
		return "descriptor_pool_management"
	case DescriptorSetManagement:
		return "descriptor_set_management"
	case PipelineManagement:
		return "pipeline_management"
	}
	return "unknown"
}

/**
 * @brief One mutex per group of Vulkan objects. Vulkan requires external
 * synchronization of a pool and the sets allocated from it, the groups
 * serialize calls touching the same kind of object.
 */
type VulkanLockPool struct {
	locks [lockGroupCount]sync.Mutex
}

func NewVulkanLockPool() *VulkanLockPool {
	return &VulkanLockPool{}
}

// SafeCall runs fn holding the mutex of group.
func (vs *VulkanLockPool) SafeCall(group LockGroup, fn func() error) error {
	l := &vs.locks[group]
	l.Lock()
	defer l.Unlock()

	return fn()
}
