package fetch

import (
	"context"
	"time"

	"github.com/jonwraymond/fincache/cache"
	"github.com/jonwraymond/fincache/flight"
	"github.com/jonwraymond/fincache/metrics"
	"github.com/jonwraymond/fincache/observe"
	"github.com/jonwraymond/fincache/ops"
	"github.com/jonwraymond/fincache/upstream"
)

// DefaultPreloadConcurrency bounds concurrently running warmup fetches.
const DefaultPreloadConcurrency = 4

// Config configures a Service.
type Config struct {
	// Registry is the operation catalog. Required.
	Registry *ops.Registry

	// Mux supplies the upstream call for each operation. Required.
	// Operations without a binding fail at call time.
	Mux *upstream.Mux

	// Store caches query results.
	// Default: a bounded in-memory store with the default TTL policy.
	Store cache.Store

	// Keyer derives request fingerprints.
	// Default: SHA-256 over canonical JSON.
	Keyer cache.Keyer

	// Coordinator deduplicates concurrent upstream calls per
	// fingerprint.
	// Default: a fresh coordinator.
	Coordinator *flight.Coordinator

	// Recorder aggregates the hit/miss/dedup counters behind Metrics.
	// Default: a fresh recorder.
	Recorder *metrics.Recorder

	// Executor hardens upstream calls with throttling, retries and
	// per-attempt timeouts. Optional; nil calls upstream directly.
	Executor *upstream.Executor

	// Middleware wraps real upstream calls with tracing, metrics and
	// logging. Optional.
	Middleware *observe.Middleware

	// Observe records per-request outcomes and the live entry gauge.
	// Default: no-op.
	Observe observe.Metrics

	// Logger receives pipeline logs.
	// Default: no-op.
	Logger observe.Logger

	// PreloadConcurrency bounds concurrently running warmup fetches.
	// Default: 4
	PreloadConcurrency int

	// Now overrides the time source for date-windowed preload
	// parameters. Used by tests.
	Now func() time.Time
}

// Validate checks that required dependencies are present.
func (c Config) Validate() error {
	if c.Registry == nil {
		return ErrNilRegistry
	}
	if c.Mux == nil {
		return ErrNilMux
	}
	return nil
}

// Service is the single entry point for cached upstream access. It
// wires fingerprinting, the tiered store, in-flight deduplication,
// shape projection, metrics and the hardened upstream chain behind one
// Fetch call.
//
// Contract:
// - Concurrency: safe for concurrent use. Distinct fingerprints
//   proceed independently; no upstream call runs under a lock.
// - Lifecycle: construct once at startup and share across requests.
//   State is process-local; nothing is shared across processes.
// - Errors: ErrUnknownOperation, ErrNotQuery and ErrUnsupportedShape
//   reject a request before any upstream work. Upstream failures
//   surface as *UpstreamError and are never cached.
type Service struct {
	registry     *ops.Registry
	store        cache.Store
	keyer        cache.Keyer
	coord        *flight.Coordinator
	recorder     *metrics.Recorder
	obs          observe.Metrics
	logger       observe.Logger
	call         observe.UpstreamFunc
	preloadLimit int
	now          func() time.Time
}

// NewService wires a Service from config, filling optional
// dependencies with defaults.
func NewService(cfg Config) (*Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Store == nil {
		cfg.Store = cache.NewMemoryStore(cache.StoreConfig{})
	}
	if cfg.Keyer == nil {
		cfg.Keyer = cache.NewDefaultKeyer()
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = flight.NewCoordinator()
	}
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewRecorder()
	}
	if cfg.Observe == nil {
		cfg.Observe = observe.NewNoopMetrics()
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NewNoopLogger()
	}
	if cfg.PreloadConcurrency <= 0 {
		cfg.PreloadConcurrency = DefaultPreloadConcurrency
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Service{
		registry:     cfg.Registry,
		store:        cfg.Store,
		keyer:        cfg.Keyer,
		coord:        cfg.Coordinator,
		recorder:     cfg.Recorder,
		obs:          cfg.Observe,
		logger:       cfg.Logger,
		call:         buildCall(cfg.Mux, cfg.Executor, cfg.Middleware),
		preloadLimit: cfg.PreloadConcurrency,
		now:          cfg.Now,
	}, nil
}

// buildCall composes the upstream call path: the mux binding innermost,
// the hardening executor around it, observability middleware outermost.
// One invocation of the returned function is one logical upstream call,
// whatever the executor retries underneath.
func buildCall(mux *upstream.Mux, exec *upstream.Executor, mw *observe.Middleware) observe.UpstreamFunc {
	call := func(ctx context.Context, meta observe.OpMeta, params map[string]any) ([]byte, error) {
		fn, err := mux.Lookup(meta.Operation)
		if err != nil {
			return nil, err
		}
		if exec == nil {
			return fn(ctx, params)
		}
		return exec.Call(ctx, func(ctx context.Context) ([]byte, error) {
			return fn(ctx, params)
		})
	}
	if mw == nil {
		return call
	}
	return mw.Wrap(call)
}

// Metrics returns a point-in-time snapshot of the aggregated counters
// together with the live cache entry count.
func (s *Service) Metrics() metrics.Snapshot {
	return s.recorder.Snapshot(s.store.Len())
}

// InvalidateOperation removes every cached entry for a query operation
// and reports how many were removed.
func (s *Service) InvalidateOperation(ctx context.Context, operation string) (int, error) {
	desc, err := s.queryDescriptor(operation)
	if err != nil {
		return 0, err
	}

	removed := s.store.InvalidateOperation(ctx, desc.Name)
	s.obs.RecordCacheEntries(ctx, s.store.Len())
	return removed, nil
}

// Invalidate removes the cached entries for one logical request, every
// shape the operation supports included.
func (s *Service) Invalidate(ctx context.Context, operation string, params map[string]any) error {
	desc, err := s.queryDescriptor(operation)
	if err != nil {
		return err
	}

	for _, level := range shapeLevels {
		if !desc.Supports(level) {
			continue
		}
		fp, err := s.keyer.Key(desc.Name, level.String(), params, desc.SetParams)
		if err != nil {
			return err
		}
		if err := s.store.Invalidate(ctx, fp.Key); err != nil {
			return err
		}
	}

	s.obs.RecordCacheEntries(ctx, s.store.Len())
	return nil
}

// queryDescriptor resolves operation to a registered query descriptor.
func (s *Service) queryDescriptor(operation string) (ops.Descriptor, error) {
	desc, ok := s.registry.Lookup(operation)
	if !ok {
		return ops.Descriptor{}, wrapOp(ErrUnknownOperation, operation)
	}
	if desc.Kind != ops.KindQuery {
		return ops.Descriptor{}, wrapOp(ErrNotQuery, operation)
	}
	return desc, nil
}
