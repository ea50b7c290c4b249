package cache

import "time"

// Class buckets operations by how quickly their upstream data changes.
// The ordering is significant: lower classes are cheaper to refetch and are
// evicted first under memory pressure.
type Class int

const (
	// ClassDynamic covers near-real-time data such as account balances and
	// transaction lists.
	ClassDynamic Class = iota

	// ClassSemiStatic covers slowly changing directories such as merchants
	// and institutions, where staleness is tolerable for hours.
	ClassSemiStatic

	// ClassStatic covers data that changes only through rare schema-level
	// events, such as category lists.
	ClassStatic
)

// String returns the string representation of the class.
func (c Class) String() string {
	switch c {
	case ClassDynamic:
		return "dynamic"
	case ClassSemiStatic:
		return "semi_static"
	case ClassStatic:
		return "static"
	default:
		return "unknown"
	}
}

// Valid reports whether c is a known class.
func (c Class) Valid() bool {
	return c >= ClassDynamic && c <= ClassStatic
}

// Policy maps TTL classes to concrete durations.
type Policy struct {
	// Static is the TTL for ClassStatic entries.
	// Default: 7 days
	Static time.Duration

	// SemiStatic is the TTL for ClassSemiStatic entries.
	// Default: 4 hours
	SemiStatic time.Duration

	// Dynamic is the TTL for ClassDynamic entries. Per-operation overrides
	// may shorten it further.
	// Default: 4 minutes
	Dynamic time.Duration
}

// DefaultPolicy returns the default TTL policy.
// Static: 7 days, SemiStatic: 4 hours, Dynamic: 4 minutes.
func DefaultPolicy() Policy {
	return Policy{
		Static:     7 * 24 * time.Hour,
		SemiStatic: 4 * time.Hour,
		Dynamic:    4 * time.Minute,
	}
}

// Duration returns the base TTL for a class.
func (p Policy) Duration(c Class) time.Duration {
	switch c {
	case ClassStatic:
		return p.Static
	case ClassSemiStatic:
		return p.SemiStatic
	default:
		return p.Dynamic
	}
}

// TTLFor returns the effective TTL for an entry of class c, applying the
// per-operation override. Overrides may shorten the class duration, never
// extend it.
func (p Policy) TTLFor(c Class, override time.Duration) time.Duration {
	base := p.Duration(c)
	if override <= 0 || override > base {
		return base
	}
	return override
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	def := DefaultPolicy()
	if p.Static <= 0 {
		p.Static = def.Static
	}
	if p.SemiStatic <= 0 {
		p.SemiStatic = def.SemiStatic
	}
	if p.Dynamic <= 0 {
		p.Dynamic = def.Dynamic
	}
	return p
}
