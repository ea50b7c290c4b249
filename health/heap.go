package health

import (
	"context"
	"fmt"
	"runtime"
)

// HeapConfig configures the process heap checker.
type HeapConfig struct {
	// WarnBytes is the live heap size that reports degraded. The store
	// bound caps entry count, not bytes, so a run of large payloads can
	// grow the heap while the entry count stays modest.
	// Default: 256 MiB
	WarnBytes uint64

	// FailBytes is the live heap size that reports unhealthy.
	// Default: 4 x WarnBytes
	FailBytes uint64
}

// HeapChecker watches the heap of the process hosting the cache. The
// store lives entirely in memory; this is the backstop for when the
// entry bound alone is not protecting the process.
type HeapChecker struct {
	config HeapConfig

	// readStats overrides runtime.ReadMemStats. Used by tests.
	readStats func(*runtime.MemStats)
}

// NewHeapChecker creates a heap checker.
func NewHeapChecker(config HeapConfig) *HeapChecker {
	if config.WarnBytes == 0 {
		config.WarnBytes = 256 << 20
	}
	if config.FailBytes <= config.WarnBytes {
		config.FailBytes = 4 * config.WarnBytes
	}

	return &HeapChecker{config: config, readStats: runtime.ReadMemStats}
}

// Name identifies this checker.
func (c *HeapChecker) Name() string {
	return "heap"
}

// Check judges the live heap size against the configured thresholds.
func (c *HeapChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	var stats runtime.MemStats
	c.readStats(&stats)

	details := map[string]any{
		"heap_alloc_bytes": stats.HeapAlloc,
		"heap_alloc_mb":    float64(stats.HeapAlloc) / (1 << 20),
		"heap_sys_bytes":   stats.HeapSys,
		"num_gc":           stats.NumGC,
		"goroutines":       runtime.NumGoroutine(),
	}

	switch {
	case stats.HeapAlloc >= c.config.FailBytes:
		return Unhealthy(
			fmt.Sprintf("heap critical: %s live", formatBytes(stats.HeapAlloc)),
			ErrCheckFailed,
		).WithDetails(details)
	case stats.HeapAlloc >= c.config.WarnBytes:
		return Degraded(
			fmt.Sprintf("heap high: %s live", formatBytes(stats.HeapAlloc)),
		).WithDetails(details)
	default:
		return Healthy(
			fmt.Sprintf("heap normal: %s live", formatBytes(stats.HeapAlloc)),
		).WithDetails(details)
	}
}

// formatBytes renders a byte count at MiB granularity.
func formatBytes(n uint64) string {
	return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
}

// Ensure HeapChecker implements Checker
var _ Checker = (*HeapChecker)(nil)
