package processor

import (
	"math"
	"testing"
	"time"

	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/ring"
	"tradepulse/internal/tradewindow"
)

type fakeSink struct {
	rawLines  []string
	latencies []models.LatencyRecord
}

func (f *fakeSink) LogTradeRaw(symbolName, rawJSON string) error {
	f.rawLines = append(f.rawLines, rawJSON)
	return nil
}
func (f *fakeSink) LogLatency(symbolName string, rec models.LatencyRecord) error {
	f.latencies = append(f.latencies, rec)
	return nil
}
func (f *fakeSink) LogVwap(string, models.VwapRecord) error               { return nil }
func (f *fakeSink) LogCorrelation(string, models.CorrelationRecord) error { return nil }
func (f *fakeSink) LogScheduler(models.SchedulerRecord) error             { return nil }
func (f *fakeSink) LogSystem(models.SystemRecord) error                   { return nil }
func (f *fakeSink) Close() error                                          { return nil }

func newTestProcessor() (*Processor, *ring.MessageRing, []*tradewindow.Window, *fakeSink) {
	symbols := models.NewSymbolTable(models.DefaultSymbols)
	r := ring.NewMessageRing(16)
	windows := make([]*tradewindow.Window, symbols.Len())
	for i := range windows {
		windows[i] = tradewindow.New(100)
	}
	sink := &fakeSink{}
	p := New(r, symbols, windows, sink, logger.New("test", "info"))
	return p, r, windows, sink
}

func TestProcessorParsesAndUpdatesWindow(t *testing.T) {
	p, r, windows, sink := newTestProcessor()

	frame := `{"data":[{"instId":"BTC-USDT","px":"100.0","sz":"2.0","ts":"1000"}]}`
	r.Push(models.RawMessage{RawText: frame, ReceiveTsMs: 1005})
	r.Close()

	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	symbols := models.NewSymbolTable(models.DefaultSymbols)
	btcID, _ := symbols.Lookup("BTC-USDT")
	vwap := windows[btcID].SnapshotVWAP()
	if math.Abs(vwap-100.0) > 1e-9 {
		t.Fatalf("expected window VWAP 100.0, got %v", vwap)
	}

	if len(sink.rawLines) != 1 {
		t.Fatalf("expected 1 raw trade logged, got %d", len(sink.rawLines))
	}
	if len(sink.latencies) != 1 {
		t.Fatalf("expected 1 latency record, got %d", len(sink.latencies))
	}
	if sink.latencies[0].ExchangeTsMs != 1000 || sink.latencies[0].ReceiveTsMs != 1005 {
		t.Fatalf("unexpected latency record: %+v", sink.latencies[0])
	}
}

func TestProcessorSkipsUnparsableFrames(t *testing.T) {
	p, r, _, sink := newTestProcessor()

	r.Push(models.RawMessage{RawText: `not a trade frame`, ReceiveTsMs: 1})
	r.Close()

	if err := p.Run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.rawLines) != 0 {
		t.Fatalf("expected no logged trades, got %d", len(sink.rawLines))
	}
}

func TestProcessorStopsOnRingClose(t *testing.T) {
	p, r, _, _ := newTestProcessor()

	done := make(chan error, 1)
	go func() { done <- p.Run() }()

	time.Sleep(10 * time.Millisecond)
	r.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("processor did not stop after ring close")
	}
}
