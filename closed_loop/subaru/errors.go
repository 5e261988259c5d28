package subaru

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned at construction for unusable parameters.
	ErrConfiguration = errors.New("invalid vehicle configuration")

	// ErrMissingSourceFrame marks a stock message that has not been received
	// yet. The message is skipped for the cycle.
	ErrMissingSourceFrame = errors.New("source frame not observed")
)

// FrameError is a single outbound frame dropped from a cycle's batch.
type FrameError struct {
	Message string
	Err     error
}

func (e *FrameError) Error() string {
	return fmt.Sprintf("frame %s: %v", e.Message, e.Err)
}

func (e *FrameError) Unwrap() error {
	return e.Err
}
