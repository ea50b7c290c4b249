package health

import (
	"context"
	"errors"
	"runtime"
	"testing"
)

// fixedStats overrides the checker's stats source with a fixed heap size.
func fixedStats(c *HeapChecker, heapAlloc uint64) {
	c.readStats = func(s *runtime.MemStats) {
		s.HeapAlloc = heapAlloc
		s.HeapSys = heapAlloc * 2
		s.NumGC = 7
	}
}

func TestHeapChecker_Defaults(t *testing.T) {
	c := NewHeapChecker(HeapConfig{})

	if c.config.WarnBytes != 256<<20 {
		t.Errorf("WarnBytes = %v, want 256 MiB", c.config.WarnBytes)
	}
	if c.config.FailBytes != 1024<<20 {
		t.Errorf("FailBytes = %v, want 1024 MiB", c.config.FailBytes)
	}
}

func TestHeapChecker_FailBelowWarnCorrected(t *testing.T) {
	c := NewHeapChecker(HeapConfig{WarnBytes: 100 << 20, FailBytes: 50 << 20})

	if c.config.FailBytes != 400<<20 {
		t.Errorf("FailBytes = %v, want 4 x WarnBytes", c.config.FailBytes)
	}
}

func TestHeapChecker_Name(t *testing.T) {
	c := NewHeapChecker(HeapConfig{})
	if c.Name() != "heap" {
		t.Errorf("Name() = %v, want 'heap'", c.Name())
	}
}

func TestHeapChecker_Healthy(t *testing.T) {
	c := NewHeapChecker(HeapConfig{WarnBytes: 100 << 20})
	fixedStats(c, 10<<20)

	result := c.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Fatalf("Status = %v (%s), want StatusHealthy", result.Status, result.Message)
	}
	if result.Details["heap_alloc_bytes"] != uint64(10<<20) {
		t.Errorf("Details[heap_alloc_bytes] = %v, want 10 MiB", result.Details["heap_alloc_bytes"])
	}
}

func TestHeapChecker_DegradedAboveWarn(t *testing.T) {
	c := NewHeapChecker(HeapConfig{WarnBytes: 100 << 20})
	fixedStats(c, 150<<20)

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Fatalf("Status = %v (%s), want StatusDegraded", result.Status, result.Message)
	}
}

func TestHeapChecker_UnhealthyAboveFail(t *testing.T) {
	c := NewHeapChecker(HeapConfig{WarnBytes: 100 << 20, FailBytes: 200 << 20})
	fixedStats(c, 250<<20)

	result := c.Check(context.Background())
	if result.Status != StatusUnhealthy {
		t.Fatalf("Status = %v (%s), want StatusUnhealthy", result.Status, result.Message)
	}
	if !errors.Is(result.Error, ErrCheckFailed) {
		t.Errorf("Error = %v, want ErrCheckFailed", result.Error)
	}
}

func TestHeapChecker_ThresholdBoundary(t *testing.T) {
	c := NewHeapChecker(HeapConfig{WarnBytes: 100 << 20})
	fixedStats(c, 100<<20)

	result := c.Check(context.Background())
	if result.Status != StatusDegraded {
		t.Errorf("Status = %v, want StatusDegraded exactly at WarnBytes", result.Status)
	}
}

func TestHeapChecker_RealStats(t *testing.T) {
	// Against the real runtime the default thresholds hold in a test
	// process.
	c := NewHeapChecker(HeapConfig{})

	result := c.Check(context.Background())
	if result.Status == StatusUnhealthy {
		t.Errorf("Status = %v (%s), want not unhealthy", result.Status, result.Message)
	}
	if result.Details["goroutines"] == nil {
		t.Error("Details[goroutines] missing")
	}
}

func TestHeapChecker_CancelledContext(t *testing.T) {
	c := NewHeapChecker(HeapConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := c.Check(ctx)
	if result.Status != StatusUnhealthy {
		t.Errorf("Status = %v, want StatusUnhealthy after cancel", result.Status)
	}
}
