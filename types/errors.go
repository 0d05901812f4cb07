package types

import (
	"github.com/pkg/errors"
)

var (
	// ErrConfig covers bad or missing descriptor, secret or chain identifier.
	ErrConfig = errors.New("config error")
	// ErrRange is returned for a block range with to < from.
	ErrRange = errors.New("range error")
	// ErrMapping is returned for an event kind with no relay mapping.
	ErrMapping = errors.New("mapping error")
	// ErrSubmission is returned when a relay transaction could not be broadcast.
	ErrSubmission = errors.New("submission error")
)

// Wrapf annotates one of the sentinel errors, keeping it matchable with errors.Is.
func Wrapf(sentinel error, format string, args ...interface{}) error {
	return errors.Wrapf(sentinel, format, args...)
}

// WrapCause tags cause with a sentinel. Both remain reachable through errors.Is.
func WrapCause(sentinel error, cause error, msg string) error {
	if cause == nil {
		return nil
	}
	return &taggedError{sentinel: sentinel, cause: errors.Wrap(cause, msg)}
}

type taggedError struct {
	sentinel error
	cause    error
}

func (e *taggedError) Error() string {
	return e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *taggedError) Is(target error) bool {
	return target == e.sentinel
}

func (e *taggedError) Unwrap() error { return e.cause }
