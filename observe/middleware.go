package observe

import (
	"context"
	"time"
)

// UpstreamFunc is the signature for raw upstream call functions.
// This is the standard function signature that Middleware wraps.
type UpstreamFunc func(ctx context.Context, meta OpMeta, params map[string]any) ([]byte, error)

// Middleware wraps upstream calls with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe UpstreamFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from the wrapped function are recorded and propagated unchanged.
//   - Ownership: Parameters and payloads are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps an UpstreamFunc with tracing, metrics, and logging. Only
// real upstream calls pass through here; cache hits and dedup joins
// never reach the wrapped function.
func (m *Middleware) Wrap(fn UpstreamFunc) UpstreamFunc {
	return func(ctx context.Context, meta OpMeta, params map[string]any) ([]byte, error) {
		ctx, span := m.tracer.StartSpan(ctx, meta)

		start := time.Now()
		result, err := fn(ctx, meta, params)
		duration := time.Since(start)

		m.tracer.EndSpan(span, err)
		m.metrics.RecordUpstream(ctx, meta, duration, err)

		opLogger := m.logger.WithOperation(meta)
		fields := []Field{
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
			{Key: "params", Value: params},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			opLogger.Error(ctx, "upstream call failed", fields...)
		} else {
			opLogger.Info(ctx, "upstream call completed", fields...)
		}

		return result, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := newMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
