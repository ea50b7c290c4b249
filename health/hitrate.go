package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/fincache/metrics"
)

// SnapshotFunc supplies the current metrics snapshot. The fetch
// service's Metrics method satisfies it directly.
type SnapshotFunc func() metrics.Snapshot

// HitRateConfig configures the cache hit-rate checker.
type HitRateConfig struct {
	// WarnBelow is the hit rate under which the cache is degraded.
	// Value should be between 0 and 1. Default: 0.5
	WarnBelow float64

	// MinRequests is how many requests must have been observed before
	// the rate is judged. A cold cache always misses first; until the
	// sample is large enough the checker reports healthy.
	// Default: 20
	MinRequests uint64
}

// HitRateChecker watches cache effectiveness. It reports degraded when
// the process-lifetime hit rate falls below the alert threshold, so a
// misconfigured TTL table or a churning workload surfaces before the
// upstream rate limit does.
type HitRateChecker struct {
	config   HitRateConfig
	snapshot SnapshotFunc
}

// NewHitRateChecker creates a hit-rate checker reading from snapshot.
func NewHitRateChecker(snapshot SnapshotFunc, config HitRateConfig) *HitRateChecker {
	if config.WarnBelow <= 0 || config.WarnBelow >= 1 {
		config.WarnBelow = 0.5
	}
	if config.MinRequests == 0 {
		config.MinRequests = 20
	}

	return &HitRateChecker{config: config, snapshot: snapshot}
}

// Name identifies this checker.
func (c *HitRateChecker) Name() string {
	return "cache_hit_rate"
}

// Check judges the current hit rate against the alert threshold.
func (c *HitRateChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.snapshot == nil {
		return Unhealthy("no metrics source", ErrNoSource)
	}

	snap := c.snapshot()

	details := map[string]any{
		"total_requests":  snap.TotalRequests,
		"cache_hits":      snap.CacheHits,
		"dedup_saved":     snap.DedupSaved,
		"hit_rate":        snap.CacheHitRate,
		"api_calls_saved": snap.APICallsSaved,
		"cache_entries":   snap.CacheEntries,
	}

	if snap.TotalRequests < c.config.MinRequests {
		return Healthy(fmt.Sprintf(
			"warming up: %d of %d requests observed",
			snap.TotalRequests, c.config.MinRequests,
		)).WithDetails(details)
	}

	if snap.CacheHitRate < c.config.WarnBelow {
		return Degraded(fmt.Sprintf(
			"cache hit rate %.1f%% below threshold %.1f%%",
			snap.CacheHitRate*100, c.config.WarnBelow*100,
		)).WithDetails(details)
	}

	return Healthy(fmt.Sprintf(
		"cache hit rate %.1f%%, %d upstream calls saved",
		snap.CacheHitRate*100, snap.APICallsSaved,
	)).WithDetails(details)
}

// Ensure HitRateChecker implements Checker
var _ Checker = (*HitRateChecker)(nil)
