// Package vwapworker is the first compute worker released each tick: it
// snapshots every symbol's current sliding-window VWAP, appends it to
// that symbol's history, and logs it.
package vwapworker

import (
	"context"

	"tradepulse/internal/barrier"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/sinks"
	"tradepulse/internal/tradewindow"
	"tradepulse/internal/vwaphistory"
)

// Worker computes and records one VWAP point per symbol per tick.
type Worker struct {
	start     *barrier.Barrier
	done      *barrier.Barrier
	symbols   *models.SymbolTable
	windows   []*tradewindow.Window
	histories []*vwaphistory.History
	sink      sinks.Sink
	log       *logger.Logger
	minuteMs  func() int64
}

// New builds a Worker. windows and histories must both be indexed by
// symbol id. minuteMs returns the minute boundary the coordinator set
// for the tick currently in progress.
func New(start, done *barrier.Barrier, symbols *models.SymbolTable, windows []*tradewindow.Window, histories []*vwaphistory.History, sink sinks.Sink, log *logger.Logger, minuteMs func() int64) *Worker {
	return &Worker{
		start:     start,
		done:      done,
		symbols:   symbols,
		windows:   windows,
		histories: histories,
		sink:      sink,
		log:       log,
		minuteMs:  minuteMs,
	}
}

// Run blocks, waiting for each tick's start barrier and computing every
// symbol's VWAP before releasing the done barrier, until ctx is
// canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		w.start.Wait()
		if ctx.Err() != nil {
			w.done.Wait()
			return nil
		}

		minuteTsMs := w.minuteMs()
		for id := 0; id < w.symbols.Len(); id++ {
			vwap := w.windows[id].SnapshotVWAP()
			w.histories[id].Append(minuteTsMs, vwap)

			symbolName := w.symbols.Name(id)
			if err := w.sink.LogVwap(symbolName, models.VwapRecord{
				Symbol:     symbolName,
				MinuteTsMs: minuteTsMs,
				Vwap:       vwap,
			}); err != nil {
				w.log.Error("failed to log vwap for %s: %v", symbolName, err)
			}
		}

		w.done.Wait()
	}
}
