package engine

import (
	"github.com/spaghettifunk/anima-descriptors/engine/systems"
)

type Game struct {
	ApplicationConfig *ApplicationConfig
	SystemManager     *systems.SystemManager
	State             interface{}
	FnInitialize      Initialize
	FnUpdate          Update
	FnRender          Render
	FnShutdown        Shutdown
}

type Initialize func() error
type Update func(frame uint64) error

// Render records one frame and reports how many descriptor sets it allocated.
type Render func(frame uint64) (int, error)
type Shutdown func() error
