package health

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jonwraymond/fincache/cache"
)

// filledStore builds a bounded store holding n entries.
func filledStore(t *testing.T, n, bound int) *cache.MemoryStore {
	t.Helper()
	store := cache.NewMemoryStore(cache.StoreConfig{MaxEntries: bound})
	for i := 0; i < n; i++ {
		err := store.Put(context.Background(), cache.Entry{
			Key:       fmt.Sprintf("cache:GetAccounts:full:%04d", i),
			Operation: "GetAccounts",
			Value:     []byte(`{}`),
			Class:     cache.ClassDynamic,
		})
		if err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}
	return store
}

func TestCapacityChecker_Defaults(t *testing.T) {
	c := NewCapacityChecker(nil, CapacityConfig{})
	if c.config.WarnAbove != 0.9 {
		t.Errorf("WarnAbove = %v, want 0.9", c.config.WarnAbove)
	}
}

func TestCapacityChecker_Name(t *testing.T) {
	c := NewCapacityChecker(nil, CapacityConfig{})
	if c.Name() != "cache_capacity" {
		t.Errorf("Name() = %v, want 'cache_capacity'", c.Name())
	}
}

func TestCapacityChecker_HealthyBelowThreshold(t *testing.T) {
	store := filledStore(t, 10, 100)
	c := NewCapacityChecker(store, CapacityConfig{MaxEntries: 100})

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want StatusHealthy", result.Status, result.Message)
	}
	if result.Details["entries"] != 10 {
		t.Errorf("Details[entries] = %v, want 10", result.Details["entries"])
	}
	if result.Details["fill_percent"] != 10.0 {
		t.Errorf("Details[fill_percent] = %v, want 10.0", result.Details["fill_percent"])
	}
}

func TestCapacityChecker_DegradedNearBound(t *testing.T) {
	store := filledStore(t, 95, 100)
	c := NewCapacityChecker(store, CapacityConfig{MaxEntries: 100})

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Fatalf("Status = %v (%s), want StatusDegraded", result.Status, result.Message)
	}
	if !strings.Contains(result.Message, "95 of 100") {
		t.Errorf("Message = %q, want the fill counts in it", result.Message)
	}
}

func TestCapacityChecker_EvictionBookkeepingInDetails(t *testing.T) {
	// Pushing past the bound evicts; the checker surfaces the count.
	store := filledStore(t, 8, 5)
	c := NewCapacityChecker(store, CapacityConfig{MaxEntries: 5})

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Fatalf("Status = %v (%s), want StatusDegraded at the bound", result.Status, result.Message)
	}
	if result.Details["evictions"] != uint64(3) {
		t.Errorf("Details[evictions] = %v, want 3", result.Details["evictions"])
	}
}

func TestCapacityChecker_UnboundedStore(t *testing.T) {
	store := filledStore(t, 50, -1)
	c := NewCapacityChecker(store, CapacityConfig{})

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want StatusHealthy for unbounded", result.Status, result.Message)
	}
	if _, ok := result.Details["fill_percent"]; ok {
		t.Error("fill_percent present for an unbounded store, want it absent")
	}
}

func TestCapacityChecker_NoStore(t *testing.T) {
	c := NewCapacityChecker(nil, CapacityConfig{MaxEntries: 10})

	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v, want StatusUnhealthy without a store", result.Status)
	}
	if !errors.Is(result.Error, ErrNoSource) {
		t.Errorf("Error = %v, want ErrNoSource", result.Error)
	}
}

func TestCapacityChecker_CancelledContext(t *testing.T) {
	store := filledStore(t, 1, 100)
	c := NewCapacityChecker(store, CapacityConfig{MaxEntries: 100})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy after cancel", result.Status)
	}
}
