package flight

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Sentinel errors for coordinator misuse.
var (
	// ErrEmptyKey indicates a call was attempted with an empty key.
	ErrEmptyKey = errors.New("flight: key is empty")

	// ErrNilCall indicates Do was invoked without a call function.
	ErrNilCall = errors.New("flight: call function is nil")
)

// CallFunc performs the single upstream call for a key. It runs on a
// detached goroutine owned by the coordinator and is never canceled
// when waiters abandon their wait; cancellation plumbing, if any,
// belongs inside the closure.
type CallFunc func() ([]byte, error)

// call is one in-flight upstream call and its attached waiters.
type call struct {
	done    chan struct{}
	value   []byte
	err     error
	waiters int
}

// Coordinator deduplicates concurrent calls per key.
//
// Contract:
// - Concurrency: safe for concurrent use. The critical section covers
//   only the check/insert/remove steps, never the call itself, so
//   distinct keys proceed independently.
// - Lifecycle: a call entry exists only while its upstream call is
//   outstanding. It is removed before waiters are released, for
//   success and failure alike, so outcomes are never re-joined.
// - Errors: a failed call shares its error with every waiter. A waiter
//   whose own context ends first receives the context error instead
//   and the call continues without it.
type Coordinator struct {
	mu    sync.Mutex
	calls map[string]*call
}

// NewCoordinator returns an empty coordinator.
func NewCoordinator() *Coordinator {
	return &Coordinator{calls: make(map[string]*call)}
}

// Do returns the outcome of fn for key, invoking fn at most once
// across all concurrent callers of the same key. The first caller
// leads and reports shared=false; every other caller attaches to the
// leader's call and reports shared=true. shared is only true when the
// caller actually received the shared outcome: abandoning the wait via
// ctx reports shared=false with the context error.
func (c *Coordinator) Do(ctx context.Context, key string, fn CallFunc) (value []byte, shared bool, err error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}
	if fn == nil {
		return nil, false, ErrNilCall
	}

	c.mu.Lock()
	if cl, ok := c.calls[key]; ok {
		cl.waiters++
		c.mu.Unlock()
		return wait(ctx, cl)
	}

	cl := &call{done: make(chan struct{}), waiters: 1}
	c.calls[key] = cl
	c.mu.Unlock()

	go c.run(key, cl, fn)

	value, _, err = wait(ctx, cl)
	return value, false, err
}

// Join attaches to an in-flight call for key if one exists. ok reports
// whether a shared outcome was received; when no call is outstanding,
// Join returns immediately with ok=false and a nil error so the caller
// can lead its own call.
func (c *Coordinator) Join(ctx context.Context, key string) (value []byte, ok bool, err error) {
	if key == "" {
		return nil, false, ErrEmptyKey
	}

	c.mu.Lock()
	cl, exists := c.calls[key]
	if !exists {
		c.mu.Unlock()
		return nil, false, nil
	}
	cl.waiters++
	c.mu.Unlock()

	return wait(ctx, cl)
}

// InFlight reports the number of keys with an outstanding call.
func (c *Coordinator) InFlight() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// Waiters reports the number of callers attached to the in-flight call
// for key, the leader included, or zero when no call is outstanding.
// Callers that abandoned their wait stay counted for the remainder of
// the call.
func (c *Coordinator) Waiters(key string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if cl, ok := c.calls[key]; ok {
		return cl.waiters
	}
	return 0
}

// run executes fn and publishes its outcome. The entry is removed from
// the in-flight set before done is closed so that no caller can attach
// to a completed call.
func (c *Coordinator) run(key string, cl *call, fn CallFunc) {
	defer func() {
		if r := recover(); r != nil {
			cl.value, cl.err = nil, fmt.Errorf("flight: call for %q panicked: %v", key, r)
		}
		c.mu.Lock()
		if c.calls[key] == cl {
			delete(c.calls, key)
		}
		c.mu.Unlock()
		close(cl.done)
	}()

	cl.value, cl.err = fn()
}

// wait blocks until the call resolves or ctx ends, whichever is first.
func wait(ctx context.Context, cl *call) ([]byte, bool, error) {
	select {
	case <-cl.done:
		return cl.value, true, cl.err
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}
