package core

import (
	"errors"
	"fmt"
)

// Sentinel error kinds from spec §7. BufferWarning is deliberately
// absent here — it is telemetry (ShadowBuffer.Warnings), not an error.
var (
	ErrHelperSpawnFailed = errors.New("helper spawn failed")
	ErrHelperGone        = errors.New("helper gone")
	ErrAckTimeout        = errors.New("ack timeout")
	ErrAckError          = errors.New("helper returned ERR")
	ErrCancelled         = errors.New("cancelled")
	ErrAlreadyRunning    = errors.New("engine already running")
)

// InvalidOptionsError is fatal to planning, raised before any step is
// emitted (spec §4.1 failure modes).
type InvalidOptionsError struct {
	Reason string
}

func (e *InvalidOptionsError) Error() string {
	return fmt.Sprintf("invalid options: %s", e.Reason)
}

// NewInvalidOptionsError constructs an InvalidOptionsError.
func NewInvalidOptionsError(reason string) error {
	return &InvalidOptionsError{Reason: reason}
}

// IsInvalidOptions reports whether err is (or wraps) an InvalidOptionsError.
func IsInvalidOptions(err error) bool {
	var target *InvalidOptionsError
	return errors.As(err, &target)
}
