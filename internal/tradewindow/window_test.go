package tradewindow

import (
	"math"
	"testing"

	"tradepulse/internal/models"
)

func TestWindowVWAPEmptyIsNaN(t *testing.T) {
	w := New(10)
	if v := w.SnapshotVWAP(); !math.IsNaN(v) {
		t.Fatalf("expected NaN for empty window, got %v", v)
	}
}

func TestWindowVWAPIncremental(t *testing.T) {
	w := New(10)
	w.AddTrade(1000, 10.0, 2.0) // pv=20 v=2
	w.AddTrade(1500, 20.0, 1.0) // pv=20 v=1 -> total pv=40 v=3
	got := w.SnapshotVWAP()
	want := 40.0 / 3.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected VWAP %v, got %v", want, got)
	}
	if w.Size() != 2 {
		t.Fatalf("expected size 2, got %d", w.Size())
	}
}

func TestWindowEvictsExpiredTrades(t *testing.T) {
	w := New(10)
	w.AddTrade(0, 10.0, 1.0)
	// Push a trade far enough ahead that the first falls outside WindowMs.
	w.AddTrade(models.WindowMs+1, 50.0, 1.0)

	if w.Size() != 1 {
		t.Fatalf("expected stale trade evicted, size=%d", w.Size())
	}
	got := w.SnapshotVWAP()
	if math.Abs(got-50.0) > 1e-9 {
		t.Fatalf("expected VWAP 50 after eviction, got %v", got)
	}
}

func TestWindowEvictsOnCapacity(t *testing.T) {
	w := New(2)
	w.AddTrade(0, 10.0, 1.0)
	w.AddTrade(1, 20.0, 1.0)
	w.AddTrade(2, 30.0, 1.0) // forces eviction of ts=0 entry

	if w.Size() != 2 {
		t.Fatalf("expected size capped at 2, got %d", w.Size())
	}
	got := w.SnapshotVWAP()
	want := (20.0 + 30.0) / 2.0
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("expected VWAP %v, got %v", want, got)
	}
}
