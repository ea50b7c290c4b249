package health

import "errors"

// Sentinel errors for health checks.
var (
	// ErrCheckFailed indicates a check judged its component unhealthy.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a check did not finish within the
	// aggregator's deadline.
	ErrCheckTimeout = errors.New("health: check timed out")

	// ErrCheckerNotFound indicates no checker is registered under the
	// requested name.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrNoSource indicates a checker was built without the metrics or
	// store source it reads from.
	ErrNoSource = errors.New("health: no data source configured")
)
