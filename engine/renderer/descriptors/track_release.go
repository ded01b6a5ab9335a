//go:build release

package descriptors

const trackValidation = false
