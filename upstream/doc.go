// Package upstream hardens calls to the rate-limited upstream API.
//
// Every real API call the cache layer cannot avoid passes through an
// Executor that composes protective patterns around it:
//
//   - Throttle: a token bucket (golang.org/x/time/rate) that spaces calls
//     to stay inside the upstream's request budget, waiting with context
//     cancellation rather than failing outright.
//
//   - Circuit Breaker: an optional sony/gobreaker-backed breaker that
//     fails fast once the upstream is persistently unhealthy. It is not
//     part of the default chain; enable it only where rejecting fresh
//     calls after shared failures is acceptable.
//
//   - Retry: automatic retries for transient failures with configurable
//     backoff strategies (exponential, linear, constant) and jitter.
//
//   - Attempt Timeout: bounds each individual call attempt.
//
// A Mux binds operation names to their raw call functions so the fetch
// layer can resolve and invoke calls uniformly.
//
// # Usage
//
//	mux := upstream.NewMux()
//	_ = mux.Bind("GetAccounts", fetchAccounts)
//
//	exec := upstream.NewExecutor(
//	    upstream.WithThrottle(5, 2),
//	    upstream.WithRetry(upstream.NewRetry(upstream.RetryConfig{
//	        MaxAttempts:  3,
//	        InitialDelay: 100 * time.Millisecond,
//	        Jitter:       true,
//	    })),
//	    upstream.WithAttemptTimeout(10*time.Second),
//	)
//
//	fn, _ := mux.Lookup("GetAccounts")
//	payload, err := exec.Call(ctx, func(ctx context.Context) ([]byte, error) {
//	    return fn(ctx, params)
//	})
package upstream
