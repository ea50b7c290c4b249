package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for store operations.
var (
	ErrNilStore   = errors.New("cache: store is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
)

// Entry is a write request for the store. InsertedAt and the expiry are
// assigned by the store; the effective TTL is derived from Class and
// TTLOverride via the store's Policy.
type Entry struct {
	// Key is the fingerprint the entry is stored under.
	Key string

	// Operation is the logical operation that produced the value. Used by
	// InvalidateOperation.
	Operation string

	// Canonical is the canonical parameter form the key was derived from.
	// Stored alongside the value so reads can verify the entry matches the
	// request that looked it up.
	Canonical string

	// Value is the opaque result payload.
	Value []byte

	// Class selects the TTL tier for the entry.
	Class Class

	// TTLOverride shortens the class TTL for this operation. Zero uses the
	// class duration as-is; overrides never extend past it.
	TTLOverride time.Duration
}

// Store is the interface for the tiered result cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; absent, expired, and structurally invalid
//   entries all report a miss.
// - Context: methods should honor cancellation/deadlines where applicable.
type Store interface {
	// Get retrieves a cached value. When canonical is non-empty it is
	// compared against the stored canonical form; a mismatched entry is
	// discarded and reported as a miss. Returns (nil, false) on miss.
	Get(ctx context.Context, key, canonical string) ([]byte, bool)

	// Put stores an entry. A resolved TTL of zero means no caching.
	Put(ctx context.Context, e Entry) error

	// Invalidate removes a single entry. Idempotent - no error on miss.
	Invalidate(ctx context.Context, key string) error

	// InvalidateOperation removes every entry stored for the operation and
	// returns the number removed.
	InvalidateOperation(ctx context.Context, operation string) int

	// Len reports the number of live entries.
	Len() int
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
