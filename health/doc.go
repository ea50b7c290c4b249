// Package health monitors the effectiveness of the caching layer.
//
// A cache that stops hitting is invisible from the outside: requests
// still succeed, they just all pay the upstream cost, and the upstream
// rate limit decides when that becomes an outage. The checkers here
// watch the figures that predict it - hit rate, store fill level and
// process heap - and reduce them to healthy, degraded or unhealthy.
//
// # Checkers
//
// HitRateChecker reads the fetch service's metrics snapshot and reports
// degraded when the process-lifetime hit rate falls below its alert
// threshold (0.5 by default), once enough requests have been observed
// to judge:
//
//	check := health.NewHitRateChecker(svc.Metrics, health.HitRateConfig{})
//	result := check.Check(ctx)
//	if result.Status == health.StatusDegraded {
//	    log.Printf("cache needs attention: %s", result.Message)
//	}
//
// CapacityChecker watches how full the bounded store is, and
// HeapChecker is the byte-level backstop for the process hosting the
// in-memory store.
//
// # Aggregation
//
// Aggregator combines the registered checkers into one composite
// status:
//
//	agg := health.NewAggregator()
//	agg.Register("cache_hit_rate", health.NewHitRateChecker(svc.Metrics, health.HitRateConfig{}))
//	agg.Register("cache_capacity", health.NewCapacityChecker(store, health.CapacityConfig{MaxEntries: 4096}))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// # HTTP probes
//
// The usual probe endpoints are provided for the hosting process:
//
//	mux := http.NewServeMux()
//	health.RegisterHandlers(mux, agg)
//
// /healthz answers liveness, /readyz reduces the checks to a status
// code, and /health reports every check with its figures.
package health
