package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultMaxEntries is the default store bound.
const DefaultMaxEntries = 4096

// StoreConfig configures the in-memory store.
type StoreConfig struct {
	// MaxEntries bounds the number of live entries. When a write pushes the
	// store over the bound, entries are evicted cheapest-to-refetch first:
	// dynamic before semi-static before static, oldest insertion first
	// within a class. Negative disables the bound.
	// Default: 4096
	MaxEntries int

	// Policy maps TTL classes to durations. Zero fields use defaults.
	Policy Policy

	// Now overrides the time source. Used by tests.
	Now func() time.Time
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]*record
	cfg     StoreConfig

	// Bookkeeping, guarded by mu.
	evictions   uint64
	expirations uint64
	corruptions uint64
}

type record struct {
	operation  string
	canonical  string
	value      []byte
	class      Class
	insertedAt time.Time
	expiresAt  time.Time
}

// Stats is a point-in-time view of store bookkeeping.
type Stats struct {
	// Entries is the number of live entries.
	Entries int

	// Evictions counts entries removed under the size bound.
	Evictions uint64

	// Expirations counts entries discarded lazily on expired reads.
	Expirations uint64

	// Corruptions counts entries discarded because their stored canonical
	// form did not match the requesting fingerprint.
	Corruptions uint64
}

// NewMemoryStore creates a new in-memory store with the given config.
func NewMemoryStore(cfg StoreConfig) *MemoryStore {
	if cfg.MaxEntries == 0 {
		cfg.MaxEntries = DefaultMaxEntries
	}
	cfg.Policy = cfg.Policy.withDefaults()
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &MemoryStore{
		records: make(map[string]*record),
		cfg:     cfg,
	}
}

// Get retrieves a value. Absent, expired, and canonical-mismatched entries
// all report (nil, false); the latter two are discarded on the way out.
func (s *MemoryStore) Get(_ context.Context, key, canonical string) ([]byte, bool) {
	s.mu.RLock()
	rec, ok := s.records[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false
	}

	if s.cfg.Now().After(rec.expiresAt) {
		s.discard(key, rec, &s.expirations)
		return nil, false
	}

	if canonical != "" && rec.canonical != canonical {
		// Hash collision or a corrupted slot. Either way the entry cannot
		// be trusted for this request.
		s.discard(key, rec, &s.corruptions)
		return nil, false
	}

	return rec.value, true
}

// Put stores an entry, evicting under the bound. A resolved TTL of zero
// means no caching.
func (s *MemoryStore) Put(_ context.Context, e Entry) error {
	if err := ValidateKey(e.Key); err != nil {
		return err
	}

	ttl := s.cfg.Policy.TTLFor(e.Class, e.TTLOverride)
	if ttl <= 0 {
		return nil
	}

	now := s.cfg.Now()
	rec := &record{
		operation:  e.Operation,
		canonical:  e.Canonical,
		value:      e.Value,
		class:      e.Class,
		insertedAt: now,
		expiresAt:  now.Add(ttl),
	}

	s.mu.Lock()
	s.records[e.Key] = rec
	s.evict(now)
	s.mu.Unlock()

	return nil
}

// Invalidate removes a value. Idempotent - no error on miss.
func (s *MemoryStore) Invalidate(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// InvalidateOperation removes every entry stored for the operation.
func (s *MemoryStore) InvalidateOperation(_ context.Context, operation string) int {
	s.mu.Lock()
	removed := 0
	for key, rec := range s.records {
		if rec.operation == operation {
			delete(s.records, key)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

// Len reports the number of live entries, including any not yet lazily
// expired.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Stats returns a point-in-time view of store bookkeeping.
func (s *MemoryStore) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Stats{
		Entries:     len(s.records),
		Evictions:   s.evictions,
		Expirations: s.expirations,
		Corruptions: s.corruptions,
	}
}

// discard removes rec if it is still the live record for key. A concurrent
// Put may have replaced it; the replacement must survive.
func (s *MemoryStore) discard(key string, rec *record, counter *uint64) {
	s.mu.Lock()
	if s.records[key] == rec {
		delete(s.records, key)
		*counter++
	}
	s.mu.Unlock()
}

// evict removes entries until the store is within its bound. Expired
// entries go first, then live entries cheapest-to-refetch first.
// Caller must hold mu.
func (s *MemoryStore) evict(now time.Time) {
	if s.cfg.MaxEntries < 0 {
		return
	}
	for len(s.records) > s.cfg.MaxEntries {
		victimKey := ""
		var victim *record
		for key, rec := range s.records {
			if victim == nil || evictBefore(rec, victim, now) {
				victimKey, victim = key, rec
			}
		}
		delete(s.records, victimKey)
		s.evictions++
	}
}

// evictBefore reports whether a should be evicted ahead of b.
func evictBefore(a, b *record, now time.Time) bool {
	aExpired := now.After(a.expiresAt)
	bExpired := now.After(b.expiresAt)
	if aExpired != bExpired {
		return aExpired
	}
	if a.class != b.class {
		return a.class < b.class
	}
	return a.insertedAt.Before(b.insertedAt)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
