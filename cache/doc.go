// Package cache provides the tiered result store for upstream fetches.
//
// It provides deterministic fingerprinting of (operation, shape, parameters)
// requests, TTL classes for data of different volatility, and a bounded
// in-memory store with class-aware eviction.
package cache
