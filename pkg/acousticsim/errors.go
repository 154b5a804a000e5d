package acousticsim

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedFeature marks a stored descriptor that cannot be decoded or fused.
	ErrMalformedFeature = errors.New("acousticsim: malformed feature descriptor")
	// ErrIndexConstruction marks a bucket whose ANN index could not be built.
	ErrIndexConstruction = errors.New("acousticsim: index construction failed")
	// ErrStoreUnavailable marks a failed segment store operation.
	ErrStoreUnavailable = errors.New("acousticsim: segment store unavailable")
)

// Error wraps errors with operation context.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("acousticsim.%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WrapError wraps an error with operation context.
func WrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

func storeError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: fmt.Errorf("%w: %w", ErrStoreUnavailable, err)}
}
