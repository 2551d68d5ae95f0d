// Package scheduler drives the once-a-minute compute cadence: it wakes
// as close to each minute boundary as possible, releases the compute
// workers through a start barrier, waits for them at a done barrier,
// and records how far the tick drifted from its schedule.
package scheduler

import (
	"context"
	"math"
	"time"

	"tradepulse/internal/barrier"
	"tradepulse/internal/clock"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/sinks"
	"tradepulse/internal/sysmetrics"
)

const (
	periodNs = int64(time.Minute)
	emaAlpha = 0.2
	emaMaxNs = float64(100 * time.Millisecond)
)

// Scheduler ticks once per minute, coordinating the compute workers
// through a pair of barriers and predicting each tick's own compute
// cost so it wakes early enough to still land on the boundary.
type Scheduler struct {
	start   *barrier.Barrier
	done    *barrier.Barrier
	sink    sinks.Sink
	log     *logger.Logger
	monitor *sysmetrics.Monitor

	// nowNs and periodNs are overridden by tests to exercise the tick
	// cadence and drift accounting against a synthetic clock instead of
	// waiting on real minute boundaries.
	nowNs    func() int64
	periodNs int64

	// CurrentMinuteMs is the minute boundary the workers should use for
	// the tick currently in progress, updated immediately before the
	// start barrier is released.
	CurrentMinuteMs int64
}

// New builds a Scheduler. start and done must be sized for exactly this
// scheduler plus every compute worker it coordinates.
func New(start, done *barrier.Barrier, sink sinks.Sink, log *logger.Logger) *Scheduler {
	return &Scheduler{
		start:    start,
		done:     done,
		sink:     sink,
		log:      log,
		monitor:  sysmetrics.NewMonitor(),
		nowNs:    clock.NowMonotonicNs,
		periodNs: periodNs,
	}
}

// Run blocks, ticking once per minute, until ctx is canceled. On
// cancellation it passes both barriers once more so any worker blocked
// on them can observe ctx.Err() and exit, then returns nil.
func (s *Scheduler) Run(ctx context.Context) error {
	emaDurationNs := 0.0

	nowNs := s.nowNs()
	scheduledNs := ((nowNs / s.periodNs) + 1) * s.periodNs

	for {
		nowNs = s.nowNs()
		for scheduledNs <= nowNs {
			scheduledNs += s.periodNs
		}

		predictedNs := int64(math.Round(emaDurationNs))
		targetWakeupNs := scheduledNs - predictedNs
		if targetWakeupNs <= nowNs {
			lateByNs := nowNs - targetWakeupNs
			s.log.Warning("missed schedule window (late by %.2fms), executing immediately", float64(lateByNs)/float64(time.Millisecond))
			targetWakeupNs = nowNs
		}

		if !sleepUntil(ctx, s.nowNs, targetWakeupNs) {
			s.releaseWorkersForShutdown()
			return nil
		}

		select {
		case <-ctx.Done():
			s.releaseWorkersForShutdown()
			return nil
		default:
		}

		s.CurrentMinuteMs = clock.MinuteFloorMs(clock.NowMs())

		workStartNs := s.nowNs()
		s.start.Wait()
		s.done.Wait()
		workEndNs := s.nowNs()
		workDurationNs := workEndNs - workStartNs

		emaDurationNs = emaAlpha*float64(workDurationNs) + (1-emaAlpha)*emaDurationNs
		if emaDurationNs < 0 {
			emaDurationNs = 0
		}
		if emaDurationNs > emaMaxNs {
			emaDurationNs = emaMaxNs
		}

		scheduleDriftNs := workEndNs - scheduledNs

		cpuPct, memMB := s.monitor.Sample()
		if err := s.sink.LogSystem(models.SystemRecord{
			TsMs:     s.CurrentMinuteMs,
			CPUPct:   cpuPct,
			MemoryMB: memMB,
		}); err != nil {
			s.log.Error("failed to log system metrics: %v", err)
		}
		if err := s.sink.LogScheduler(models.SchedulerRecord{
			ScheduledMs: scheduledNs / int64(time.Millisecond),
			ActualMs:    workEndNs / int64(time.Millisecond),
			DriftMs:     scheduleDriftNs / int64(time.Millisecond),
		}); err != nil {
			s.log.Error("failed to log scheduler metrics: %v", err)
		}

		scheduledNs += s.periodNs
	}
}

// releaseWorkersForShutdown passes both barriers one final time so any
// worker parked on start.Wait waking into done.Wait can observe context
// cancellation and return instead of blocking forever.
func (s *Scheduler) releaseWorkersForShutdown() {
	s.start.Wait()
	s.done.Wait()
}

// sleepUntil blocks until nowNs reaches targetNs or ctx is canceled,
// returning false in the latter case.
func sleepUntil(ctx context.Context, nowNs func() int64, targetNs int64) bool {
	for {
		remaining := time.Duration(targetNs - nowNs())
		if remaining <= 0 {
			return true
		}

		timer := time.NewTimer(remaining)
		select {
		case <-timer.C:
			return true
		case <-ctx.Done():
			timer.Stop()
			return false
		}
	}
}
