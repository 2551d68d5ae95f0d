package vwaphistory

import (
	"testing"

	"tradepulse/internal/models"
)

func TestHistoryGetRecentNeedsEnoughPoints(t *testing.T) {
	h := New(10)
	h.Append(1000, 1.0)
	if _, ok := h.GetRecent(2); ok {
		t.Fatal("expected ok=false with insufficient points")
	}
	h.Append(2000, 2.0)
	pts, ok := h.GetRecent(2)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pts[0].Vwap != 1.0 || pts[1].Vwap != 2.0 {
		t.Fatalf("unexpected order: %+v", pts)
	}
}

func TestHistoryOverwritesOldestWhenFull(t *testing.T) {
	h := New(3)
	h.Append(1000, 1.0)
	h.Append(2000, 2.0)
	h.Append(3000, 3.0)
	h.Append(4000, 4.0) // overwrites the 1000 point

	pts, ok := h.GetRecent(3)
	if !ok {
		t.Fatal("expected ok=true")
	}
	want := []float64{2.0, 3.0, 4.0}
	for i, w := range want {
		if pts[i].Vwap != w {
			t.Fatalf("index %d: expected %v, got %v", i, w, pts[i].Vwap)
		}
	}
}

func TestHistoryWindowAt(t *testing.T) {
	h := New(10)
	for i := int64(0); i < 6; i++ {
		h.Append((i+1)*1000, float64(i+1))
	}
	// size=6, windowLen=2, offset=1 -> start = 0+6-2-1=3 -> points idx 3,4 (values 4,5)
	pts, ok := h.WindowAt(2, 1)
	if !ok {
		t.Fatal("expected ok=true")
	}
	if pts[0].Vwap != 4 || pts[1].Vwap != 5 {
		t.Fatalf("unexpected window: %+v", pts)
	}
}

func TestHistoryWindowAtInsufficientData(t *testing.T) {
	h := New(10)
	h.Append(1000, 1.0)
	if _, ok := h.WindowAt(2, 1); ok {
		t.Fatal("expected ok=false")
	}
}

func TestHistorySearchSeesConsistentSnapshot(t *testing.T) {
	h := New(10)
	for i := int64(0); i < 6; i++ {
		h.Append((i+1)*1000, float64(i+1))
	}

	var gotSize int
	var gotVwap float64
	var gotOk bool
	h.Search(2, func(size int, at func(int) ([]models.VwapPoint, bool)) {
		gotSize = size
		pts, ok := at(1)
		gotOk = ok
		if ok {
			gotVwap = pts[1].Vwap
		}
	})

	if gotSize != 6 {
		t.Fatalf("expected size 6, got %d", gotSize)
	}
	if !gotOk || gotVwap != 5 {
		t.Fatalf("expected window ending at vwap 5, got %v ok=%v", gotVwap, gotOk)
	}
}
