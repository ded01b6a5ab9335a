package descriptors

import "errors"

var (
	// ErrDeviceLimitExceeded means a binding shape cannot be compiled on this
	// device. It is a content bug: the engine treats it as fatal.
	ErrDeviceLimitExceeded = errors.New("descriptor layout exceeds device limits")
	// ErrUnknownDescriptorType means reflection produced a type outside the
	// supported set. Fatal for the same reason.
	ErrUnknownDescriptorType = errors.New("unknown descriptor type")
	ErrInvalidDescriptor     = errors.New("invalid descriptor declaration")
	ErrConflictingBinding    = errors.New("binding redeclared with a different type or count")
	ErrLayoutAlreadyCompiled = errors.New("descriptor layout already compiled")
	ErrLayoutNotCompiled     = errors.New("descriptor layout not compiled")
	ErrLayoutMismatch        = errors.New("layout does not match the pool's descriptor usage")
	ErrPoolCannotSatisfy     = errors.New("a fresh descriptor pool cannot satisfy the allocation")
	ErrRegistryNotLeased     = errors.New("pool set registry is not leased")
	ErrRegistryUnknown       = errors.New("pool set registry is not owned by this manager")
	ErrOutputTooSmall        = errors.New("output slice too small for the layout's sets")
)
