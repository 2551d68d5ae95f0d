package corrworker

import (
	"context"
	"testing"
	"time"

	"tradepulse/internal/barrier"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/vwaphistory"
)

type fakeSink struct {
	correlationRecords []models.CorrelationRecord
}

func (f *fakeSink) LogTradeRaw(string, string) error              { return nil }
func (f *fakeSink) LogLatency(string, models.LatencyRecord) error { return nil }
func (f *fakeSink) LogVwap(string, models.VwapRecord) error       { return nil }
func (f *fakeSink) LogCorrelation(symbolName string, rec models.CorrelationRecord) error {
	f.correlationRecords = append(f.correlationRecords, rec)
	return nil
}
func (f *fakeSink) LogScheduler(models.SchedulerRecord) error { return nil }
func (f *fakeSink) LogSystem(models.SystemRecord) error       { return nil }
func (f *fakeSink) Close() error                              { return nil }

func TestWorkerLogsBestPeerWhenHistorySufficient(t *testing.T) {
	symbols := models.NewSymbolTable(models.DefaultSymbols)
	start := barrier.New(2)
	done := barrier.New(2)

	histories := make([]*vwaphistory.History, symbols.Len())
	for i := range histories {
		histories[i] = vwaphistory.New(80)
	}

	windowLen := models.MovingAvgPoints
	// Give symbol 0 a rising series and symbol 1 the exact same series lagged
	// by windowLen minutes so the cross-symbol search finds a perfect match.
	for i := 0; i < windowLen*2; i++ {
		histories[1].Append(int64(i)*60000, float64(i))
	}
	for i := 0; i < windowLen; i++ {
		histories[0].Append(int64(i+windowLen)*60000, float64(i))
	}

	sink := &fakeSink{}
	minuteMs := int64(999)
	w := New(start, done, symbols, histories, sink, logger.New("test", "info"), func() int64 { return minuteMs }, windowLen, models.MaxLagMinutes)

	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan error, 1)
	go func() { runDone <- w.Run(ctx) }()

	start.Wait()
	done.Wait()

	if len(sink.correlationRecords) == 0 {
		t.Fatal("expected at least one correlation record")
	}

	cancel()
	start.Wait()
	done.Wait()

	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}
