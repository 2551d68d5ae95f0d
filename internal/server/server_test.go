package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/tradewindow"
	"tradepulse/internal/vwaphistory"
)

func newTestServer() *Server {
	symbols := models.NewSymbolTable(models.DefaultSymbols)
	windows := make([]*tradewindow.Window, symbols.Len())
	histories := make([]*vwaphistory.History, symbols.Len())
	for i := range windows {
		windows[i] = tradewindow.New(100)
		histories[i] = vwaphistory.New(10)
	}
	windows[0].AddTrade(1000, 50.0, 1.0)
	histories[0].Append(60000, 50.0)

	return New("127.0.0.1", 0, logger.New("test", "info"), symbols, windows, histories)
}

func TestHealthzReportsOK(t *testing.T) {
	s := newTestServer()
	go s.run(context.Background())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	s.engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
}

func TestSymbolsListsAllConfiguredSymbols(t *testing.T) {
	s := newTestServer()
	go s.run(context.Background())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/symbols", nil)
	s.engine.ServeHTTP(rec, req)

	var body struct {
		Symbols []string `json:"symbols"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Symbols) != len(models.DefaultSymbols) {
		t.Fatalf("expected %d symbols, got %d", len(models.DefaultSymbols), len(body.Symbols))
	}
}

func TestSnapshotIncludesCurrentVwapAndHistory(t *testing.T) {
	s := newTestServer()
	go s.run(context.Background())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/snapshot", nil)
	s.engine.ServeHTTP(rec, req)

	var body struct {
		Snapshot []snapshotEntry `json:"snapshot"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if len(body.Snapshot) != len(models.DefaultSymbols) {
		t.Fatalf("expected %d entries, got %d", len(models.DefaultSymbols), len(body.Snapshot))
	}
	if !body.Snapshot[0].HasHistory || body.Snapshot[0].LastVwap == nil || *body.Snapshot[0].LastVwap != 50.0 {
		t.Fatalf("expected first symbol to have history with vwap 50.0, got %+v", body.Snapshot[0])
	}
	if body.Snapshot[0].CurrentVwap == nil || *body.Snapshot[0].CurrentVwap != 50.0 {
		t.Fatalf("expected first symbol current vwap 50.0, got %+v", body.Snapshot[0])
	}
	// A symbol with no trades yet has an undefined VWAP, surfaced as a
	// null field rather than a NaN that would break JSON decoding.
	if body.Snapshot[1].CurrentVwap != nil {
		t.Fatalf("expected second symbol current vwap to be nil, got %v", *body.Snapshot[1].CurrentVwap)
	}
}

func TestRunShutsDownOnContextCancel(t *testing.T) {
	s := newTestServer()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not shut down after context cancellation")
	}
}
