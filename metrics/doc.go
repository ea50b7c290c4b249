// Package metrics aggregates request-outcome counters for the fetch
// pipeline and derives the cache effectiveness figures reported to
// operators.
//
// Counters only ever increase. A snapshot is a point-in-time read and
// never resets anything; resetting is a process-restart concern.
package metrics
