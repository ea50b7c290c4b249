package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome classifies how a request was served.
type Outcome string

const (
	// OutcomeHit means the request was served from a valid cache entry.
	OutcomeHit Outcome = "hit"

	// OutcomeMiss means the request paid the upstream cost or ended
	// without being served.
	OutcomeMiss Outcome = "miss"

	// OutcomeDedupSaved means the request joined an in-flight upstream
	// call instead of issuing its own.
	OutcomeDedupSaved Outcome = "dedup_saved"
)

// Metrics records cache pipeline metrics.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordRequest records one request and its outcome.
	RecordRequest(ctx context.Context, meta OpMeta, outcome Outcome)

	// RecordUpstream records a real upstream call with duration and error status.
	RecordUpstream(ctx context.Context, meta OpMeta, duration time.Duration, err error)

	// RecordCacheEntries records the current live entry count of the store.
	RecordCacheEntries(ctx context.Context, entries int)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter         metric.Meter
	requestCount  metric.Int64Counter
	hitCount      metric.Int64Counter
	dedupCount    metric.Int64Counter
	upstreamCount metric.Int64Counter
	upstreamHist  metric.Float64Histogram
	entriesGauge  metric.Int64Gauge
}

// newMetrics creates a new Metrics instance with the given meter.
func newMetrics(meter metric.Meter) (*metricsImpl, error) {
	requestCount, err := meter.Int64Counter(
		"fetch.requests.total",
		metric.WithDescription("Total number of fetch requests"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	hitCount, err := meter.Int64Counter(
		"fetch.cache.hits",
		metric.WithDescription("Requests served from a valid cache entry"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	dedupCount, err := meter.Int64Counter(
		"fetch.dedup.saved",
		metric.WithDescription("Requests served by joining an in-flight upstream call"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamCount, err := meter.Int64Counter(
		"fetch.upstream.calls",
		metric.WithDescription("Real upstream calls issued"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	upstreamHist, err := meter.Float64Histogram(
		"fetch.upstream.duration_ms",
		metric.WithDescription("Upstream call duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	entriesGauge, err := meter.Int64Gauge(
		"fetch.cache.entries",
		metric.WithDescription("Live cache entry count"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:         meter,
		requestCount:  requestCount,
		hitCount:      hitCount,
		dedupCount:    dedupCount,
		upstreamCount: upstreamCount,
		upstreamHist:  upstreamHist,
		entriesGauge:  entriesGauge,
	}, nil
}

// opAttrs builds the common attribute set for an invocation.
func opAttrs(meta OpMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("op.name", meta.Operation),
	}
	if meta.Shape != "" {
		attrs = append(attrs, attribute.String("op.shape", meta.Shape))
	}
	return attrs
}

// RecordRequest records one request and its outcome.
func (m *metricsImpl) RecordRequest(ctx context.Context, meta OpMeta, outcome Outcome) {
	attrs := append(opAttrs(meta), attribute.String("outcome", string(outcome)))
	m.requestCount.Add(ctx, 1, metric.WithAttributes(attrs...))

	opt := metric.WithAttributes(opAttrs(meta)...)
	switch outcome {
	case OutcomeHit:
		m.hitCount.Add(ctx, 1, opt)
	case OutcomeDedupSaved:
		m.dedupCount.Add(ctx, 1, opt)
	}
}

// RecordUpstream records a real upstream call.
func (m *metricsImpl) RecordUpstream(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
	attrs := append(opAttrs(meta), attribute.Bool("error", err != nil))
	opt := metric.WithAttributes(attrs...)

	m.upstreamCount.Add(ctx, 1, opt)
	m.upstreamHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// RecordCacheEntries records the current store size.
func (m *metricsImpl) RecordCacheEntries(ctx context.Context, entries int) {
	m.entriesGauge.Record(ctx, int64(entries))
}

// MetricsFromObserver creates a Metrics backed by the observer's meter.
func MetricsFromObserver(obs Observer) (Metrics, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}
	return newMetrics(obs.Meter())
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordRequest(ctx context.Context, meta OpMeta, outcome Outcome) {}
func (m *noopMetrics) RecordUpstream(ctx context.Context, meta OpMeta, duration time.Duration, err error) {
}
func (m *noopMetrics) RecordCacheEntries(ctx context.Context, entries int) {}

// NewNoopMetrics returns a Metrics that records nothing. Useful as a
// default when no observer is configured.
func NewNoopMetrics() Metrics {
	return &noopMetrics{}
}
