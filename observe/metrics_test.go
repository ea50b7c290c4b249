package observe

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*metricsImpl, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := newMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("failed to create metrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("failed to collect metrics: %v", err)
	}
	return rm
}

// TestMetrics_RequestCounterIncrements verifies fetch.requests.total is incremented.
func TestMetrics_RequestCounterIncrements(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetAccounts", Shape: "full"}
	m.RecordRequest(context.Background(), meta, OutcomeMiss)

	rm := collect(t, reader)
	found := findMetric(rm, "fetch.requests.total")
	if found == nil {
		t.Fatal("fetch.requests.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != 1 {
		t.Errorf("expected count 1, got %d", sum.DataPoints[0].Value)
	}
}

// TestMetrics_HitIncrementsHitCounter verifies a hit touches fetch.cache.hits only.
func TestMetrics_HitIncrementsHitCounter(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetAccounts"}
	m.RecordRequest(context.Background(), meta, OutcomeHit)

	rm := collect(t, reader)

	hits := findMetric(rm, "fetch.cache.hits")
	if hits == nil {
		t.Fatal("fetch.cache.hits metric not found")
	}
	sum, ok := hits.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", hits.Data)
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Error("expected hit count 1")
	}

	// Dedup counter must stay untouched.
	if dedup := findMetric(rm, "fetch.dedup.saved"); dedup != nil {
		if s, ok := dedup.Data.(metricdata.Sum[int64]); ok && len(s.DataPoints) > 0 && s.DataPoints[0].Value != 0 {
			t.Errorf("expected dedup count 0, got %d", s.DataPoints[0].Value)
		}
	}
}

// TestMetrics_DedupIncrementsDedupCounter verifies a dedup save touches fetch.dedup.saved.
func TestMetrics_DedupIncrementsDedupCounter(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetTransactions"}
	m.RecordRequest(context.Background(), meta, OutcomeDedupSaved)

	rm := collect(t, reader)
	dedup := findMetric(rm, "fetch.dedup.saved")
	if dedup == nil {
		t.Fatal("fetch.dedup.saved metric not found")
	}
	sum, ok := dedup.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", dedup.Data)
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Error("expected dedup count 1")
	}
}

// TestMetrics_OutcomeAttribute verifies the outcome label on the request counter.
func TestMetrics_OutcomeAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetAccounts", Shape: "basic"}
	m.RecordRequest(context.Background(), meta, OutcomeHit)

	rm := collect(t, reader)
	found := findMetric(rm, "fetch.requests.total")
	if found == nil {
		t.Fatal("fetch.requests.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	attrs := sum.DataPoints[0].Attributes
	var foundName, foundShape, foundOutcome bool
	for iter := attrs.Iter(); iter.Next(); {
		kv := iter.Attribute()
		switch string(kv.Key) {
		case "op.name":
			foundName = true
			if kv.Value.AsString() != "GetAccounts" {
				t.Errorf("expected op.name='GetAccounts', got %q", kv.Value.AsString())
			}
		case "op.shape":
			foundShape = true
			if kv.Value.AsString() != "basic" {
				t.Errorf("expected op.shape='basic', got %q", kv.Value.AsString())
			}
		case "outcome":
			foundOutcome = true
			if kv.Value.AsString() != "hit" {
				t.Errorf("expected outcome='hit', got %q", kv.Value.AsString())
			}
		}
	}

	if !foundName {
		t.Error("op.name attribute not found")
	}
	if !foundShape {
		t.Error("op.shape attribute not found")
	}
	if !foundOutcome {
		t.Error("outcome attribute not found")
	}
}

// TestMetrics_UpstreamCallRecorded verifies counter and duration histogram.
func TestMetrics_UpstreamCallRecorded(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetBudgets"}
	m.RecordUpstream(context.Background(), meta, 50*time.Millisecond, nil)

	rm := collect(t, reader)

	calls := findMetric(rm, "fetch.upstream.calls")
	if calls == nil {
		t.Fatal("fetch.upstream.calls metric not found")
	}
	sum, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", calls.Data)
	}
	if len(sum.DataPoints) == 0 || sum.DataPoints[0].Value != 1 {
		t.Error("expected upstream call count 1")
	}

	hist := findMetric(rm, "fetch.upstream.duration_ms")
	if hist == nil {
		t.Fatal("fetch.upstream.duration_ms metric not found")
	}
	h, ok := hist.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected Histogram[float64], got %T", hist.Data)
	}
	if len(h.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if dp := h.DataPoints[0]; dp.Sum < 40 || dp.Sum > 60 {
		t.Errorf("expected duration ~50ms, got %f", dp.Sum)
	}
}

// TestMetrics_UpstreamErrorAttribute verifies the error label on failed calls.
func TestMetrics_UpstreamErrorAttribute(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetCashflow"}
	m.RecordUpstream(context.Background(), meta, 10*time.Millisecond, errors.New("upstream unavailable"))

	rm := collect(t, reader)
	calls := findMetric(rm, "fetch.upstream.calls")
	if calls == nil {
		t.Fatal("fetch.upstream.calls metric not found")
	}

	sum, ok := calls.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", calls.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}

	var foundError bool
	for iter := sum.DataPoints[0].Attributes.Iter(); iter.Next(); {
		kv := iter.Attribute()
		if string(kv.Key) == "error" {
			foundError = true
			if !kv.Value.AsBool() {
				t.Error("expected error=true on failed upstream call")
			}
		}
	}
	if !foundError {
		t.Error("error attribute not found")
	}
}

// TestMetrics_CacheEntriesGauge verifies the live entry gauge.
func TestMetrics_CacheEntriesGauge(t *testing.T) {
	m, reader := newTestMetrics(t)

	m.RecordCacheEntries(context.Background(), 42)

	rm := collect(t, reader)
	found := findMetric(rm, "fetch.cache.entries")
	if found == nil {
		t.Fatal("fetch.cache.entries metric not found")
	}

	gauge, ok := found.Data.(metricdata.Gauge[int64])
	if !ok {
		t.Fatalf("expected Gauge[int64], got %T", found.Data)
	}
	if len(gauge.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if gauge.DataPoints[0].Value != 42 {
		t.Errorf("expected gauge 42, got %d", gauge.DataPoints[0].Value)
	}
}

// TestMetrics_ConcurrentRecording verifies thread safety.
func TestMetrics_ConcurrentRecording(t *testing.T) {
	m, reader := newTestMetrics(t)

	meta := OpMeta{Operation: "GetAccounts"}
	const numGoroutines = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			m.RecordRequest(context.Background(), meta, OutcomeHit)
		}()
	}

	wg.Wait()

	rm := collect(t, reader)
	found := findMetric(rm, "fetch.requests.total")
	if found == nil {
		t.Fatal("fetch.requests.total metric not found")
	}

	sum, ok := found.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", found.Data)
	}
	if len(sum.DataPoints) == 0 {
		t.Fatal("no data points")
	}
	if sum.DataPoints[0].Value != numGoroutines {
		t.Errorf("expected count %d, got %d", numGoroutines, sum.DataPoints[0].Value)
	}
}

// findMetric searches for a metric by name in ResourceMetrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}
