package vulkan

import (
	"sync"
	"testing"

	vk "github.com/goki/vulkan"
	"github.com/stretchr/testify/assert"
)

func TestVulkanResultString(t *testing.T) {
	assert.Equal(t, "VK_ERROR_OUT_OF_POOL_MEMORY", VulkanResultString(vk.ErrorOutOfPoolMemory, false))
	assert.Equal(t, "VK_ERROR_OUT_OF_POOL_MEMORY A pool memory allocation has failed.", VulkanResultString(vk.ErrorOutOfPoolMemory, true))
	assert.Equal(t, "VK_RESULT", VulkanResultString(vk.Result(-424242), false))
}

func TestVulkanResultClassification(t *testing.T) {
	assert.True(t, VulkanResultIsSuccess(vk.Success))
	assert.True(t, VulkanResultIsSuccess(vk.Incomplete))
	assert.False(t, VulkanResultIsSuccess(vk.ErrorDeviceLost))

	assert.True(t, vulkanPoolExhausted(vk.ErrorOutOfPoolMemory))
	assert.True(t, vulkanPoolExhausted(vk.ErrorFragmentedPool))
	assert.False(t, vulkanPoolExhausted(vk.ErrorOutOfDeviceMemory))
}

func TestVulkanLockPool_SerializesGroup(t *testing.T) {
	lp := NewVulkanLockPool()
	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				_ = lp.SafeCall(DescriptorSetManagement, func() error {
					counter++
					return nil
				})
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 800, counter)
	assert.Equal(t, "descriptor_pool_management", DescriptorPoolManagement.String())
}
