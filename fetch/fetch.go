package fetch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/fincache/cache"
	"github.com/jonwraymond/fincache/flight"
	"github.com/jonwraymond/fincache/observe"
	"github.com/jonwraymond/fincache/ops"
	"github.com/jonwraymond/fincache/shape"
)

// shapeLevels lists every detail level, narrowest first.
var shapeLevels = []shape.Level{shape.LevelBasic, shape.LevelBalance, shape.LevelFull}

// Fetch serves one query, consulting the cache and the in-flight set
// before paying the upstream cost. The empty level serves the full
// payload.
//
// A narrow level is served from a cached or in-flight full payload for
// the same parameters when one exists; the projection is applied
// locally and no second upstream call is issued. Otherwise the
// requested shape is fetched and cached under its own fingerprint.
//
// The upstream call, when one is needed, runs detached from ctx so a
// caller abandoning its wait never cancels work other waiters depend
// on. The abandoning caller gets its context error; the call completes
// and is cached for everyone else.
func (s *Service) Fetch(ctx context.Context, operation string, params map[string]any, level shape.Level) ([]byte, error) {
	desc, err := s.queryDescriptor(operation)
	if err != nil {
		return nil, err
	}

	if level == "" {
		level = shape.LevelFull
	}
	proj, ok := desc.Projection(level)
	if !ok {
		return nil, fmt.Errorf("%w: %s for %s", ErrUnsupportedShape, level, operation)
	}

	fp, err := s.keyer.Key(desc.Name, level.String(), params, desc.SetParams)
	if err != nil {
		return nil, err
	}
	meta := observe.OpMeta{Operation: desc.Name, Shape: level.String()}

	// Own-shape entry first.
	if value, ok := s.store.Get(ctx, fp.Key, fp.Canonical); ok {
		s.served(ctx, meta, observe.OutcomeHit)
		return value, nil
	}

	if level != shape.LevelFull {
		value, outcome, done, err := s.fromFull(ctx, meta, desc, params, proj)
		if done {
			s.served(ctx, meta, outcome)
			return value, err
		}
	}

	value, shared, err := s.coord.Do(ctx, fp.Key, s.leaderCall(ctx, meta, desc, fp, params, proj))
	switch {
	case err == nil && shared:
		s.served(ctx, meta, observe.OutcomeDedupSaved)
		return value, nil
	case err == nil:
		s.served(ctx, meta, observe.OutcomeMiss)
		return value, nil
	case shared:
		// The shared call failed; the failure is this caller's outcome
		// too, but it still cost only one upstream call.
		s.served(ctx, meta, observe.OutcomeDedupSaved)
		return nil, &UpstreamError{Operation: desc.Name, Cause: err}
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		// Abandoned the wait. The call continues without this caller.
		s.served(ctx, meta, observe.OutcomeMiss)
		return nil, err
	default:
		s.served(ctx, meta, observe.OutcomeMiss)
		return nil, &UpstreamError{Operation: desc.Name, Cause: err}
	}
}

// fromFull tries to serve a narrow request from the full payload for
// the same parameters, cached or in flight. done reports whether the
// request was resolved here; when false the caller falls through to a
// direct fetch of the requested shape.
func (s *Service) fromFull(ctx context.Context, meta observe.OpMeta, desc ops.Descriptor, params map[string]any, proj shape.Projection) (value []byte, outcome observe.Outcome, done bool, err error) {
	fullFp, err := s.keyer.Key(desc.Name, shape.LevelFull.String(), params, desc.SetParams)
	if err != nil {
		return nil, observe.OutcomeMiss, true, err
	}

	if full, ok := s.store.Get(ctx, fullFp.Key, fullFp.Canonical); ok {
		value, perr := proj.Apply(full)
		if perr == nil {
			return value, observe.OutcomeHit, true, nil
		}
		// The stored payload does not decode. Discard it and refetch.
		_ = s.store.Invalidate(ctx, fullFp.Key)
		s.logger.Warn(ctx, "discarded corrupt cache entry",
			observe.Field{Key: "key", Value: fullFp.Key},
			observe.Field{Key: "error", Value: perr.Error()})
	}

	full, joined, jerr := s.coord.Join(ctx, fullFp.Key)
	switch {
	case joined && jerr == nil:
		if value, perr := proj.Apply(full); perr == nil {
			return value, observe.OutcomeDedupSaved, true, nil
		}
		// The shared payload does not decode. Pay the upstream cost
		// for the requested shape instead.
		return nil, observe.OutcomeMiss, false, nil
	case joined:
		// Joined a call that failed.
		return nil, observe.OutcomeDedupSaved, true, &UpstreamError{Operation: desc.Name, Cause: jerr}
	case jerr != nil:
		// Own context ended while waiting on the full call.
		return nil, observe.OutcomeMiss, true, jerr
	default:
		return nil, observe.OutcomeMiss, false, nil
	}
}

// leaderCall builds the call the coordinator runs when this request
// leads its fingerprint. The call is detached from the caller's
// context, the payload is projected to the requested shape, and the
// result is cached before the coordinator releases any waiter.
// Failures are shared, never cached.
func (s *Service) leaderCall(ctx context.Context, meta observe.OpMeta, desc ops.Descriptor, fp cache.Fingerprint, params map[string]any, proj shape.Projection) flight.CallFunc {
	detached := context.WithoutCancel(ctx)
	return func() ([]byte, error) {
		payload, err := s.call(detached, meta, params)
		if err != nil {
			return nil, err
		}

		value, err := proj.Apply(payload)
		if err != nil {
			return nil, err
		}

		entry := cache.Entry{
			Key:         fp.Key,
			Operation:   desc.Name,
			Canonical:   fp.Canonical,
			Value:       value,
			Class:       desc.Class,
			TTLOverride: desc.TTLOverride,
		}
		if perr := s.store.Put(detached, entry); perr != nil {
			s.logger.Warn(detached, "cache write failed",
				observe.Field{Key: "key", Value: fp.Key},
				observe.Field{Key: "error", Value: perr.Error()})
		} else {
			s.obs.RecordCacheEntries(detached, s.store.Len())
		}

		return value, nil
	}
}

// Execute runs a mutation. Mutations bypass the cache and the
// coordinator entirely; on success the cached entries of every query
// the mutation invalidates are removed, so the next read refetches.
func (s *Service) Execute(ctx context.Context, operation string, params map[string]any) ([]byte, error) {
	desc, ok := s.registry.Lookup(operation)
	if !ok {
		return nil, wrapOp(ErrUnknownOperation, operation)
	}
	if desc.Kind != ops.KindMutation {
		return nil, wrapOp(ErrNotMutation, operation)
	}

	meta := observe.OpMeta{Operation: desc.Name}
	payload, err := s.call(ctx, meta, params)
	if err != nil {
		return nil, &UpstreamError{Operation: desc.Name, Cause: err}
	}

	for _, target := range desc.Invalidates {
		if removed := s.store.InvalidateOperation(ctx, target); removed > 0 {
			s.logger.Debug(ctx, "invalidated query cache",
				observe.Field{Key: "operation", Value: target},
				observe.Field{Key: "entries", Value: removed})
		}
	}
	if len(desc.Invalidates) > 0 {
		s.obs.RecordCacheEntries(ctx, s.store.Len())
	}

	return payload, nil
}

// served records the outcome of one request on both counting surfaces.
func (s *Service) served(ctx context.Context, meta observe.OpMeta, outcome observe.Outcome) {
	switch outcome {
	case observe.OutcomeHit:
		s.recorder.RecordHit()
	case observe.OutcomeDedupSaved:
		s.recorder.RecordDedupSaved()
	default:
		s.recorder.RecordMiss()
	}
	s.obs.RecordRequest(ctx, meta, outcome)
}

// wrapOp annotates a sentinel with the offending operation name.
func wrapOp(sentinel error, operation string) error {
	return fmt.Errorf("%w: %s", sentinel, operation)
}
