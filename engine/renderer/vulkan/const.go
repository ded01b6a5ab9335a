package vulkan

/**
 * @brief Number of frames a released native object is kept alive before
 * it can be destroyed. Must cover every frame in flight.
 */
const VULKAN_RESOURCE_DELETE_SAFE_FRAMES_COUNT uint64 = 10

/**
 * @brief Number of allocations of one layout a descriptor pool is sized for.
 */
const VULKAN_DESCRIPTOR_POOL_MAX_SETS uint32 = 256

/**
 * @brief Max number of descriptor sets in a single pipeline layout.
 * @note The guaranteed minimum of maxBoundDescriptorSets.
 */
const VULKAN_MAX_BOUND_DESCRIPTOR_SETS int = 4
