package monitor

import (
	"errors"
	"fmt"
)

var (
	// ErrSessionActive is returned by Start while a session is still
	// running or stopping. Start never queues or replaces a live session.
	ErrSessionActive = errors.New("monitor: a monitoring session is already active")

	// ErrInvalidParameter is returned by Start for out-of-range arguments,
	// before any state change.
	ErrInvalidParameter = errors.New("monitor: invalid parameter")
)

func invalidParamf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidParameter, fmt.Sprintf(format, args...))
}
