package vulkan

import (
	vk "github.com/goki/vulkan"
)

type resultDescription struct {
	name   string
	detail string
}

// From: https://www.khronos.org/registry/vulkan/specs/1.3-extensions/man/html/VkResult.html
var resultDescriptions = map[vk.Result]resultDescription{
	vk.Success:                {"VK_SUCCESS", "Command successfully completed"},
	vk.ErrorOutOfHostMemory:   {"VK_ERROR_OUT_OF_HOST_MEMORY", "A host memory allocation has failed."},
	vk.ErrorOutOfDeviceMemory: {"VK_ERROR_OUT_OF_DEVICE_MEMORY", "A device memory allocation has failed."},
	vk.ErrorDeviceLost:        {"VK_ERROR_DEVICE_LOST", "The logical or physical device has been lost."},
	vk.ErrorTooManyObjects:    {"VK_ERROR_TOO_MANY_OBJECTS", "Too many objects of the type have already been created."},
	vk.ErrorFragmentedPool:    {"VK_ERROR_FRAGMENTED_POOL", "A pool allocation has failed due to fragmentation of the pool's memory."},
	vk.ErrorOutOfPoolMemory:   {"VK_ERROR_OUT_OF_POOL_MEMORY", "A pool memory allocation has failed."},
	vk.ErrorFragmentation:     {"VK_ERROR_FRAGMENTATION", "A descriptor pool creation has failed due to fragmentation."},
	vk.ErrorUnknown:           {"VK_ERROR_UNKNOWN", "An unknown error has occurred."},
}

// VulkanResultString names the results descriptor management can run into,
// with a short description when getExtended is set.
func VulkanResultString(result vk.Result, getExtended bool) string {
	d, ok := resultDescriptions[result]
	if !ok {
		d = resultDescription{"VK_RESULT", "Unexpected result code"}
	}
	if !getExtended {
		return d.name
	}
	return d.name + " " + d.detail
}

// VulkanResultIsSuccess reports whether result is a success code. Negative
// results are errors.
func VulkanResultIsSuccess(result vk.Result) bool {
	return result >= vk.Success
}

// vulkanPoolExhausted reports results meaning the pool is out of room rather
// than the device being in trouble.
func vulkanPoolExhausted(result vk.Result) bool {
	return result == vk.ErrorOutOfPoolMemory || result == vk.ErrorFragmentedPool
}
