package core

import (
	"errors"
)

var (
	ErrNotInitialized = errors.New("system not initialized")
	ErrShuttingDown   = errors.New("system is shutting down")
	ErrInvalidConfig  = errors.New("invalid configuration")
)
