package upstream

import "errors"

// Sentinel errors for upstream call handling.
var (
	// ErrTimeout is returned when a single call attempt exceeds its deadline.
	ErrTimeout = errors.New("upstream: call attempt timed out")

	// ErrNoBinding is returned when no call function is bound for an operation.
	ErrNoBinding = errors.New("upstream: no call bound for operation")

	// ErrEmptyOperation is returned when binding under an empty operation name.
	ErrEmptyOperation = errors.New("upstream: operation name is empty")

	// ErrNilCall is returned when binding a nil call function.
	ErrNilCall = errors.New("upstream: call function is nil")

	// ErrDuplicateBinding is returned when an operation is bound twice.
	ErrDuplicateBinding = errors.New("upstream: operation already bound")
)
