package descriptors

// Opaque handles handed out by the native layer. Zero is never a valid handle.
type (
	SetLayoutHandle      uint64
	PoolHandle           uint64
	SetHandle            uint64
	PipelineLayoutHandle uint64
)

/**
 * @brief One binding of a native set layout.
 */
type LayoutBinding struct {
	Binding uint32
	Type    DescriptorType
	Count   uint32
	Stages  ShaderStage
}

/**
 * @brief Sizing of a native descriptor pool.
 */
type PoolSize struct {
	Type  DescriptorType
	Count uint32
}

type PoolDescription struct {
	/** @brief Maximum number of sets the pool can hand out. */
	MaxSets uint32
	/** @brief Descriptor capacity per type. Types not listed have no capacity. */
	Sizes []PoolSize
	/** @brief Whether individual sets can be returned to the pool. */
	FreeIndividualSets bool
}

// NativeDevice is the slice of the graphics API the descriptor layer consumes.
// Implementations live in the vulkan package (real driver) and in headless
// (in-memory, for tests and simulations).
type NativeDevice interface {
	Limits() DeviceLimits

	CreateSetLayout(bindings []LayoutBinding) (SetLayoutHandle, error)
	DestroySetLayout(handle SetLayoutHandle)

	CreatePool(desc PoolDescription) (PoolHandle, error)
	ResetPool(pool PoolHandle) error
	DestroyPool(pool PoolHandle)

	// AllocateSets allocates one set per layout into out. ok is false with a
	// nil error when the pool is exhausted; any other failure is an error.
	AllocateSets(pool PoolHandle, layouts []SetLayoutHandle, out []SetHandle) (ok bool, err error)
	FreeSets(pool PoolHandle, sets []SetHandle) error

	CreatePipelineLayout(setLayouts []SetLayoutHandle) (PipelineLayoutHandle, error)
	DestroyPipelineLayout(handle PipelineLayoutHandle)
}

// FrameClock is the engine's frame counter.
type FrameClock interface {
	FrameCount() uint64
}
