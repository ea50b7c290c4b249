// Package ops defines the static operation catalog.
//
// Every invocable upstream operation is described by a Descriptor: its
// kind, TTL class, fingerprint rules, supported shapes and, for mutations,
// the query caches it invalidates. Descriptors are registered once at
// startup; nothing is inferred at runtime.
package ops
