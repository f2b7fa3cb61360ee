package observability

import (
	"testing"
	"time"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/profile", "GET", 200, 10*time.Millisecond)
	m.RecordRequest("/profile", "GET", 200, 30*time.Millisecond)
	m.RecordError("/profile", "POST", "CONFLICT")

	snap := m.Snapshot()
	if got := snap.Requests["/profile|GET|200"]; got != 2 {
		t.Fatalf("requests = %d, want 2", got)
	}
	if got := snap.AvgLatencyMs["/profile|GET|200"]; got != 20 {
		t.Fatalf("avg latency = %v, want 20", got)
	}
	if got := snap.Errors["/profile|POST|CONFLICT"]; got != 1 {
		t.Fatalf("errors = %d, want 1", got)
	}
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	if len(m.Snapshot().Requests) != 0 {
		t.Fatal("expected empty snapshot")
	}
}
