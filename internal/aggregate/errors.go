package aggregate

import "errors"

var (
	ErrNotFinalized = errors.New("aggregator is not finalized")
	ErrFinalized    = errors.New("aggregator is finalized")
	ErrInvalidK     = errors.New("k must be at least 1")
)

// StateError is returned when an aggregator is used in the wrong lifecycle
// state, such as querying before Finalize or ingesting after it.
type StateError struct {
	Op  string
	Err error
}

func (e *StateError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StateError) Unwrap() error {
	return e.Err
}
