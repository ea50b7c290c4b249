package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors for the fetch pipeline.
var (
	// ErrNilRegistry indicates the service was built without an
	// operation registry.
	ErrNilRegistry = errors.New("fetch: registry is required")

	// ErrNilMux indicates the service was built without upstream call
	// bindings.
	ErrNilMux = errors.New("fetch: upstream mux is required")

	// ErrUnknownOperation indicates the operation is not registered.
	ErrUnknownOperation = errors.New("fetch: unknown operation")

	// ErrNotQuery indicates Fetch was invoked with a mutation
	// operation. Mutations go through Execute.
	ErrNotQuery = errors.New("fetch: operation is not a query")

	// ErrNotMutation indicates Execute was invoked with a query
	// operation. Queries go through Fetch.
	ErrNotMutation = errors.New("fetch: operation is not a mutation")

	// ErrUnsupportedShape indicates the operation cannot serve the
	// requested detail level. The request is rejected before any
	// upstream work.
	ErrUnsupportedShape = errors.New("fetch: unsupported detail level")

	// ErrUnknownProfile indicates Preload was invoked with a profile
	// it has no tuple list for.
	ErrUnknownProfile = errors.New("fetch: unknown preload profile")

	// ErrUpstream matches every *UpstreamError via errors.Is.
	ErrUpstream = errors.New("fetch: upstream call failed")
)

// UpstreamError reports a failed upstream call. The failure was shared
// with every caller waiting on the same fingerprint and nothing was
// cached, so an immediately following request issues a fresh call.
type UpstreamError struct {
	// Operation is the operation whose call failed.
	Operation string

	// Cause is the underlying error.
	Cause error
}

// Error returns the error message.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("fetch: upstream call for %s failed: %v", e.Operation, e.Cause)
}

// Unwrap returns the cause error for errors.Is/As support.
func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

// Is reports whether this error matches the target.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
