// Package observe bootstraps telemetry for the cache layer: an
// OpenTelemetry tracer and meter with pluggable exporters, a
// structured JSON logger with automatic field redaction, and a
// middleware that wraps upstream calls with all three.
//
// It is a pure instrumentation library: no caching, no upstream calls,
// no I/O beyond exporter setup. Every subsystem degrades to a no-op
// when disabled, so callers never branch on whether telemetry is
// configured.
package observe
