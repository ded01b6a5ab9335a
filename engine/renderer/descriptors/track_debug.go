//go:build !release

package descriptors

// trackValidation enables the per-type cross check in AllocationPool.Track.
// Release builds (-tags release) skip it.
const trackValidation = true
