package engine

import (
	"github.com/spaghettifunk/anima-descriptors/engine/config"
)

type ApplicationConfig struct {
	// The application name, used in logs.
	Name string
	// Number of job system workers, one per rendering context.
	Workers int
	// Stop after this many frames, 0 runs until Shutdown.
	MaxFrames int
	// Descriptor, logging and workload settings.
	Config *config.Config
}
