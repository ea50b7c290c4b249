package upstream

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Executor composes protective patterns around upstream calls.
type Executor struct {
	limiter        *rate.Limiter
	breaker        *Breaker
	retry          *Retry
	attemptTimeout time.Duration
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// NewExecutor creates an executor. With no options it invokes calls
// directly.
func NewExecutor(opts ...ExecutorOption) *Executor {
	e := &Executor{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithThrottle spaces calls with a token bucket refilled at rps tokens per
// second, allowing bursts of the given size.
func WithThrottle(rps float64, burst int) ExecutorOption {
	return func(e *Executor) {
		e.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLimiter installs a caller-owned rate limiter, for sharing one
// upstream budget across several executors.
func WithLimiter(l *rate.Limiter) ExecutorOption {
	return func(e *Executor) {
		e.limiter = l
	}
}

// WithBreaker adds a circuit breaker to the executor.
func WithBreaker(b *Breaker) ExecutorOption {
	return func(e *Executor) {
		e.breaker = b
	}
}

// WithRetry adds retry logic to the executor.
func WithRetry(r *Retry) ExecutorOption {
	return func(e *Executor) {
		e.retry = r
	}
}

// WithAttemptTimeout bounds each individual call attempt.
func WithAttemptTimeout(timeout time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.attemptTimeout = timeout
	}
}

// Call runs the upstream call through all configured patterns.
//
// The execution order is:
// 1. Throttle (if configured) - waits for rate capacity, honoring ctx
// 2. Circuit Breaker (if configured) - fails fast when upstream is unhealthy
// 3. Retry (if configured) - re-issues transient failures
// 4. Attempt Timeout (if configured) - bounds each attempt
func (e *Executor) Call(ctx context.Context, op func(context.Context) ([]byte, error)) ([]byte, error) {
	// Build the execution chain from inside out
	execute := op

	// Wrap with attempt timeout (innermost)
	if e.attemptTimeout > 0 {
		inner := execute
		execute = func(ctx context.Context) ([]byte, error) {
			return CallWithTimeout(ctx, e.attemptTimeout, inner)
		}
	}

	// Wrap with retry
	if e.retry != nil {
		inner := execute
		execute = func(ctx context.Context) ([]byte, error) {
			return e.retry.Execute(ctx, inner)
		}
	}

	// Wrap with circuit breaker, so exhausted retries count one failure
	if e.breaker != nil {
		inner := execute
		execute = func(ctx context.Context) ([]byte, error) {
			return e.breaker.Execute(func() ([]byte, error) {
				return inner(ctx)
			})
		}
	}

	// Wrap with throttle (outermost)
	if e.limiter != nil {
		inner := execute
		execute = func(ctx context.Context) ([]byte, error) {
			if err := e.limiter.Wait(ctx); err != nil {
				return nil, fmt.Errorf("upstream: throttle: %w", err)
			}
			return inner(ctx)
		}
	}

	return execute(ctx)
}
