package ops

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jonwraymond/fincache/cache"
	"github.com/jonwraymond/fincache/shape"
)

// Sentinel errors for registry construction and lookup.
var (
	ErrEmptyName        = errors.New("ops: operation name is empty")
	ErrInvalidKind      = errors.New("ops: invalid operation kind")
	ErrInvalidClass     = errors.New("ops: invalid ttl class")
	ErrDuplicate        = errors.New("ops: duplicate operation")
	ErrMutationShape    = errors.New("ops: mutations do not support shape projection")
	ErrQueryInvalidates = errors.New("ops: queries do not declare invalidations")
	ErrBadInvalidation  = errors.New("ops: invalidation target is not a registered query")
)

// Kind distinguishes cacheable queries from state-changing mutations.
type Kind int

const (
	// KindQuery reads upstream data. Results are cached and deduplicated.
	KindQuery Kind = iota

	// KindMutation changes upstream state. Calls bypass cache and
	// deduplication entirely and bust the declared query caches on success.
	KindMutation
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindQuery:
		return "query"
	case KindMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Descriptor describes one upstream operation.
type Descriptor struct {
	// Name is the operation name, unique within a registry.
	Name string

	// Kind is query or mutation.
	Kind Kind

	// Class selects the TTL tier for cached results. Queries only.
	Class cache.Class

	// TTLOverride shortens the class TTL for this operation. Zero uses the
	// class duration.
	TTLOverride time.Duration

	// SetParams names the list-valued parameters whose element order is
	// not semantically meaningful. Their order never affects the
	// fingerprint.
	SetParams []string

	// Projections declares the narrower shapes the operation supports.
	// LevelFull is always supported and needs no entry.
	Projections map[shape.Level]shape.Projection

	// Invalidates lists the query operations whose cached entries a
	// successful run of this mutation removes.
	Invalidates []string
}

// Cacheable reports whether results of the operation may be stored.
func (d Descriptor) Cacheable() bool {
	return d.Kind == KindQuery
}

// Supports reports whether the operation can serve the requested level.
func (d Descriptor) Supports(level shape.Level) bool {
	if level == shape.LevelFull {
		return true
	}
	_, ok := d.Projections[level]
	return ok
}

// Projection returns the projection for a supported level. LevelFull
// returns the identity projection.
func (d Descriptor) Projection(level shape.Level) (shape.Projection, bool) {
	if level == shape.LevelFull {
		return shape.Projection{}, true
	}
	p, ok := d.Projections[level]
	return p, ok
}

// Validate checks that the descriptor is well formed.
func (d Descriptor) Validate() error {
	if d.Name == "" {
		return ErrEmptyName
	}
	switch d.Kind {
	case KindQuery:
		if !d.Class.Valid() {
			return fmt.Errorf("%w: %s", ErrInvalidClass, d.Name)
		}
		if len(d.Invalidates) > 0 {
			return fmt.Errorf("%w: %s", ErrQueryInvalidates, d.Name)
		}
	case KindMutation:
		if len(d.Projections) > 0 {
			return fmt.Errorf("%w: %s", ErrMutationShape, d.Name)
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidKind, d.Name)
	}
	return nil
}

// Registry is the immutable operation catalog, built once at startup.
//
// Contract:
// - Concurrency: safe for concurrent reads after construction.
type Registry struct {
	ops map[string]Descriptor
}

// NewRegistry builds a registry from descriptors, validating each and
// resolving every invalidation link against the registered queries.
func NewRegistry(descs ...Descriptor) (*Registry, error) {
	r := &Registry{ops: make(map[string]Descriptor, len(descs))}

	for _, d := range descs {
		if err := d.Validate(); err != nil {
			return nil, err
		}
		if _, exists := r.ops[d.Name]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, d.Name)
		}
		r.ops[d.Name] = d
	}

	// Invalidation links must point at registered queries.
	for _, d := range descs {
		for _, target := range d.Invalidates {
			t, ok := r.ops[target]
			if !ok || t.Kind != KindQuery {
				return nil, fmt.Errorf("%w: %s -> %s", ErrBadInvalidation, d.Name, target)
			}
		}
	}

	return r, nil
}

// Lookup returns the descriptor for an operation name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	d, ok := r.ops[name]
	return d, ok
}

// Names returns all registered operation names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.ops))
	for name := range r.ops {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len reports the number of registered operations.
func (r *Registry) Len() int {
	return len(r.ops)
}
