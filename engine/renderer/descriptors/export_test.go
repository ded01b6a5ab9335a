package descriptors

// TrackValidation exposes the build-tag switch to the external tests.
const TrackValidation = trackValidation
