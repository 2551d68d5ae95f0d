// Package corrworker is the second compute worker released each tick:
// for every symbol with enough VWAP history, it searches all symbols'
// histories for the best-correlated lagged window and logs the winner.
package corrworker

import (
	"context"

	"tradepulse/internal/barrier"
	"tradepulse/internal/correlation"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/sinks"
	"tradepulse/internal/vwaphistory"
)

// Worker computes and records the best-correlated peer per symbol per
// tick.
type Worker struct {
	start        *barrier.Barrier
	done         *barrier.Barrier
	symbols      *models.SymbolTable
	histories    []*vwaphistory.History
	sink         sinks.Sink
	log          *logger.Logger
	minuteMs     func() int64
	windowLen    int
	maxLagMinute int
}

// New builds a Worker searching windowLen-point vectors up to
// maxLagMinutes back.
func New(start, done *barrier.Barrier, symbols *models.SymbolTable, histories []*vwaphistory.History, sink sinks.Sink, log *logger.Logger, minuteMs func() int64, windowLen, maxLagMinutes int) *Worker {
	return &Worker{
		start:        start,
		done:         done,
		symbols:      symbols,
		histories:    histories,
		sink:         sink,
		log:          log,
		minuteMs:     minuteMs,
		windowLen:    windowLen,
		maxLagMinute: maxLagMinutes,
	}
}

// Run blocks, waiting for each tick's start barrier and computing every
// symbol's best-correlated peer before releasing the done barrier, until
// ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	for {
		w.start.Wait()
		if ctx.Err() != nil {
			w.done.Wait()
			return nil
		}

		minuteTsMs := w.minuteMs()
		for id := 0; id < w.symbols.Len(); id++ {
			points, ok := w.histories[id].GetRecent(w.windowLen)
			if !ok {
				continue
			}
			srcVec := make([]float64, w.windowLen)
			for i, pt := range points {
				srcVec[i] = pt.Vwap
			}

			best := correlation.FindBestPeer(id, srcVec, w.histories, w.windowLen, w.maxLagMinute)
			if !best.Found {
				continue
			}

			rec := correlation.ToRecord(id, minuteTsMs, best, w.symbols)
			symbolName := w.symbols.Name(id)
			if err := w.sink.LogCorrelation(symbolName, rec); err != nil {
				w.log.Error("failed to log correlation for %s: %v", symbolName, err)
			}
		}

		w.done.Wait()
	}
}
