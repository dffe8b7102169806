package sim

import (
	"errors"
	"fmt"
)

// Parse errors.
var (
	ErrMissingStart          = errors.New("missing start marker")
	ErrMissingStartOperation = errors.New("missing start operation")
	ErrMissingFinish         = errors.New("missing finish operation")
	ErrNoOpenApplication     = errors.New("no application created for current operations")
	ErrInvalidToken          = errors.New("not a valid token")
	ErrInvalidCycles         = errors.New("invalid cycle count")
)

// Resource, capacity and lifecycle errors.
var (
	ErrUnknownResource   = errors.New("unknown resource")
	ErrNotHeld           = errors.New("resource slot not held")
	ErrMemoryExhausted   = errors.New("exceeded system memory")
	ErrInvalidTransition = errors.New("invalid state transition")
	ErrWaitOverflow      = errors.New("operation duration overflows")
)

// FatalError is returned by Simulator.Run when the simulation was aborted.
// The trace has already been logged and flushed when it is returned.
type FatalError struct {
	Stage string // "load", "parse", "dispatch" or "flush"
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *FatalError) Unwrap() error {
	return e.Err
}
