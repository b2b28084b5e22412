package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestCounterIncrements(t *testing.T) {
	r := NewRegistry()

	r.Counter("scan_total", Labels{"tier": "optimized"})
	r.Counter("scan_total", Labels{"tier": "optimized"})
	r.Counter("scan_total", Labels{"tier": "conservative"})

	snapshot := r.GetMetrics()
	if len(snapshot) != 2 {
		t.Fatalf("Expected 2 metrics, got %d", len(snapshot))
	}

	for _, m := range snapshot {
		if m.Type != TypeCounter {
			t.Errorf("Expected counter type, got %s", m.Type)
		}
		switch m.Labels["tier"] {
		case "optimized":
			if m.Value != 2 {
				t.Errorf("Expected optimized counter = 2, got %v", m.Value)
			}
		case "conservative":
			if m.Value != 1 {
				t.Errorf("Expected conservative counter = 1, got %v", m.Value)
			}
		}
	}
}

func TestGaugeOverwrites(t *testing.T) {
	r := NewRegistry()

	r.Gauge("active_units", 3, nil)
	r.Gauge("active_units", 7, nil)

	snapshot := r.GetMetrics()
	m, ok := snapshot["active_units"]
	if !ok {
		t.Fatal("Gauge metric missing from snapshot")
	}
	if m.Value != 7 {
		t.Errorf("Expected gauge value 7, got %v", m.Value)
	}
}

func TestDisabledRegistryRecordsNothing(t *testing.T) {
	r := NewRegistry()
	r.SetEnabled(false)

	r.Counter("scan_total", nil)
	r.Gauge("active_units", 1, nil)
	r.Histogram("scan_duration_seconds", 1.5, nil)

	if len(r.GetMetrics()) != 0 {
		t.Error("Disabled registry should not record metrics")
	}
	if r.IsEnabled() {
		t.Error("IsEnabled should report false")
	}
}

func TestReset(t *testing.T) {
	r := NewRegistry()
	r.Counter("scan_total", nil)
	r.Reset()

	if len(r.GetMetrics()) != 0 {
		t.Error("Reset should clear all metrics")
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Counter("scan_total", Labels{"tier": "verified"})

	snapshot := r.GetMetrics()
	for _, m := range snapshot {
		m.Value = 999
		m.Labels["tier"] = "mutated"
	}

	fresh := r.GetMetrics()
	for _, m := range fresh {
		if m.Value == 999 {
			t.Error("Mutating a snapshot must not affect the registry")
		}
		if m.Labels["tier"] == "mutated" {
			t.Error("Mutating snapshot labels must not affect the registry")
		}
	}
}

func TestConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Counter("scan_units_dispatched_total", nil)
			}
		}()
	}
	wg.Wait()

	m := r.GetMetrics()["scan_units_dispatched_total"]
	if m == nil || m.Value != 1000 {
		t.Errorf("Expected counter value 1000, got %+v", m)
	}
}

func TestTimer(t *testing.T) {
	defer Reset()

	timer := NewTimer("scan_duration_seconds", Labels{"tier": "optimized"})
	time.Sleep(time.Millisecond)
	timer.Stop()

	found := false
	for _, m := range GetMetrics() {
		if m.Name == "scan_duration_seconds" {
			found = true
			if m.Value <= 0 {
				t.Errorf("Timer should record positive duration, got %v", m.Value)
			}
		}
	}
	if !found {
		t.Error("Timer should record a histogram metric")
	}
}
