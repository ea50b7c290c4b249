package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/fincache/cache"
)

// CapacityConfig configures the store capacity checker.
type CapacityConfig struct {
	// MaxEntries is the store's configured entry bound. Zero or
	// negative means the store is unbounded and fill is not judged.
	MaxEntries int

	// WarnAbove is the fill fraction that reports degraded. The store
	// evicts at the bound, so a persistently full store means entries
	// are being dropped before their TTL and refetched upstream.
	// Value should be between 0 and 1. Default: 0.9
	WarnAbove float64
}

// CapacityChecker watches how full the result store is. Eviction keeps
// the store under its bound either way; the checker exists to surface
// that the bound, not the TTL table, has become the effective cache
// lifetime.
type CapacityChecker struct {
	config CapacityConfig
	store  cache.Store
}

// storeStats is satisfied by stores that expose eviction bookkeeping,
// such as *cache.MemoryStore.
type storeStats interface {
	Stats() cache.Stats
}

// NewCapacityChecker creates a capacity checker for store.
func NewCapacityChecker(store cache.Store, config CapacityConfig) *CapacityChecker {
	if config.WarnAbove <= 0 || config.WarnAbove >= 1 {
		config.WarnAbove = 0.9
	}

	return &CapacityChecker{config: config, store: store}
}

// Name identifies this checker.
func (c *CapacityChecker) Name() string {
	return "cache_capacity"
}

// Check judges the store's fill level against the warn threshold.
func (c *CapacityChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	if c.store == nil {
		return Unhealthy("no store configured", ErrNoSource)
	}

	entries := c.store.Len()

	details := map[string]any{
		"entries":     entries,
		"max_entries": c.config.MaxEntries,
	}
	if s, ok := c.store.(storeStats); ok {
		stats := s.Stats()
		details["evictions"] = stats.Evictions
		details["expirations"] = stats.Expirations
		details["corruptions"] = stats.Corruptions
	}

	if c.config.MaxEntries <= 0 {
		return Healthy(fmt.Sprintf("store unbounded, %d entries", entries)).WithDetails(details)
	}

	fill := float64(entries) / float64(c.config.MaxEntries)
	details["fill_percent"] = fill * 100

	if fill >= c.config.WarnAbove {
		return Degraded(fmt.Sprintf(
			"store %.1f%% full (%d of %d entries)",
			fill*100, entries, c.config.MaxEntries,
		)).WithDetails(details)
	}

	return Healthy(fmt.Sprintf(
		"store %.1f%% full (%d of %d entries)",
		fill*100, entries, c.config.MaxEntries,
	)).WithDetails(details)
}

// Ensure CapacityChecker implements Checker
var _ Checker = (*CapacityChecker)(nil)
