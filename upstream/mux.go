package upstream

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// CallFunc performs one raw call against the upstream API for a single
// operation, returning the normalized response payload. Implementations
// must honor ctx cancellation.
type CallFunc func(ctx context.Context, params map[string]any) ([]byte, error)

// Mux binds operation names to their upstream call functions.
//
// Contract:
//   - Concurrency: safe for concurrent use. Bindings are installed at
//     startup and looked up on the request path.
//   - Errors: Lookup returns ErrNoBinding for unknown operations; Bind
//     rejects empty names, nil functions and rebinding.
type Mux struct {
	mu    sync.RWMutex
	calls map[string]CallFunc
}

// NewMux creates an empty call multiplexer.
func NewMux() *Mux {
	return &Mux{calls: make(map[string]CallFunc)}
}

// Bind registers the call function for an operation name.
func (m *Mux) Bind(operation string, fn CallFunc) error {
	if operation == "" {
		return ErrEmptyOperation
	}
	if fn == nil {
		return fmt.Errorf("%w: %q", ErrNilCall, operation)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.calls[operation]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateBinding, operation)
	}
	m.calls[operation] = fn
	return nil
}

// Lookup returns the call function bound to an operation name.
func (m *Mux) Lookup(operation string) (CallFunc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fn, ok := m.calls[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoBinding, operation)
	}
	return fn, nil
}

// Names returns all bound operation names in sorted order.
func (m *Mux) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.calls))
	for name := range m.calls {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of bound operations.
func (m *Mux) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}
