package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"tradepulse/internal/barrier"
	"tradepulse/internal/clock"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
)

type fakeSink struct {
	mu               sync.Mutex
	systemRecords    []models.SystemRecord
	schedulerRecords []models.SchedulerRecord
}

func (f *fakeSink) LogTradeRaw(string, string) error               { return nil }
func (f *fakeSink) LogLatency(string, models.LatencyRecord) error  { return nil }
func (f *fakeSink) LogVwap(string, models.VwapRecord) error        { return nil }
func (f *fakeSink) LogCorrelation(string, models.CorrelationRecord) error {
	return nil
}
func (f *fakeSink) LogScheduler(rec models.SchedulerRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedulerRecords = append(f.schedulerRecords, rec)
	return nil
}
func (f *fakeSink) LogSystem(rec models.SystemRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.systemRecords = append(f.systemRecords, rec)
	return nil
}
func (f *fakeSink) Close() error { return nil }

func (f *fakeSink) schedulerRecordsSnapshot() []models.SchedulerRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.SchedulerRecord, len(f.schedulerRecords))
	copy(out, f.schedulerRecords)
	return out
}

// TestSchedulerReleasesWorkersOnShutdown starts a scheduler on the real
// one-minute period and a single fake worker that toggles through the
// start/done barriers, checks that sleepUntil returns at once for a
// deadline already past, and checks that canceling the context makes the
// scheduler pass both barriers once more so the worker exits.
func TestSchedulerReleasesWorkersOnShutdown(t *testing.T) {
	start := barrier.New(2)
	done := barrier.New(2)
	sink := &fakeSink{}
	sched := New(start, done, sink, logger.New("test", "info"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go sched.Run(ctx)

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			start.Wait()
			if ctx.Err() != nil {
				done.Wait()
				return
			}
			done.Wait()
		}
	}()

	// Force an immediate tick by not waiting for a real minute boundary:
	// sleepUntil returns instantly once targetNs has already passed, which
	// happens on the very first loop iteration in practice only near a
	// boundary, so instead we exercise releaseWorkersForShutdown directly
	// via cancellation, and separately verify sleepUntil's early-return path.
	if !sleepUntil(context.Background(), clock.NowMonotonicNs, clock.NowMonotonicNs()-1) {
		t.Fatal("sleepUntil should return true immediately for a past deadline")
	}

	cancel()
	select {
	case <-workerDone:
	case <-time.After(time.Second):
		t.Fatal("worker did not observe shutdown release")
	}
}

func TestSleepUntilReturnsFalseOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	ok := sleepUntil(ctx, clock.NowMonotonicNs, clock.NowMonotonicNs()+int64(time.Hour))
	if ok {
		t.Fatal("expected sleepUntil to return false when ctx is canceled")
	}
}

// TestSchedulerTickCadenceDriftBounded drives three ticks against a
// tick period accelerated to a few milliseconds, standing in for the
// once-a-minute cadence, and checks that recorded drift stays small
// when the workers finish well within the period. It keeps the real
// monotonic clock (nowNs is left at its clock.NowMonotonicNs default)
// so sleepUntil still converges against actual elapsed time; only the
// period is compressed.
func TestSchedulerTickCadenceDriftBounded(t *testing.T) {
	start := barrier.New(2)
	done := barrier.New(2)
	sink := &fakeSink{}
	sched := New(start, done, sink, logger.New("test", "info"))
	sched.periodNs = int64(5 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for {
			start.Wait()
			if ctx.Err() != nil {
				done.Wait()
				return
			}
			done.Wait()
		}
	}()

	runDone := make(chan error, 1)
	go func() { runDone <- sched.Run(ctx) }()

	deadline := time.After(2 * time.Second)
	var recs []models.SchedulerRecord
	for len(recs) < 3 {
		select {
		case <-deadline:
			t.Fatal("scheduler did not produce 3 ticks in time")
		case <-time.After(time.Millisecond):
			recs = sink.schedulerRecordsSnapshot()
		}
	}

	for i, rec := range recs[:3] {
		if rec.DriftMs > 100 || rec.DriftMs < -100 {
			t.Fatalf("tick %d drift %dms exceeds |100ms| bound", i, rec.DriftMs)
		}
	}

	cancel()
	select {
	case err := <-runDone:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop after cancellation")
	}
}
