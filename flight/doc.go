// Package flight coalesces concurrent upstream calls for the same
// fingerprint into a single in-flight call whose outcome is shared by
// every waiter.
//
// Unlike a plain singleflight, the coordinator exposes waiter counts
// and in-flight introspection, lets individual waiters abandon a wait
// via their own context without canceling the underlying call, and
// removes a completed call before releasing its waiters so a request
// arriving after completion always starts fresh.
package flight
