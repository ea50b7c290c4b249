// Package fetch is the facade over the caching and request
// coordination layer.
//
// A Service serves every query through one pipeline: the request is
// fingerprinted, the tiered store is consulted, narrow shapes are
// projected from full payloads already cached or in flight, concurrent
// requests for the same fingerprint share a single upstream call, and
// results are cached under the operation's TTL class before any waiter
// is released. Mutations bypass the pipeline and bust the query caches
// they invalidate. Preload warms the cache for named access patterns
// through the same path.
//
// Every request lands in the metrics as exactly one of a cache hit, a
// dedup save, or a miss that paid (or abandoned) the upstream cost.
//
// # Usage
//
//	registry, _ := ops.DefaultRegistry()
//	mux := upstream.NewMux()
//	_ = mux.Bind(ops.OpGetAccounts, fetchAccounts)
//
//	svc, _ := fetch.NewService(fetch.Config{
//	    Registry: registry,
//	    Mux:      mux,
//	})
//
//	payload, err := svc.Fetch(ctx, ops.OpGetAccounts, nil, shape.LevelBalance)
//
//	snap := svc.Metrics()
//	summary, _ := svc.Preload(ctx, fetch.ProfileDashboard)
package fetch
