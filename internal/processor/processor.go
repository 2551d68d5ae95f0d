// Package processor drains the message ring, parses each frame, feeds
// the parsed trade into its symbol's sliding window, and records the
// derived latency and raw-trade rows.
package processor

import (
	"tradepulse/internal/clock"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/parser"
	"tradepulse/internal/ring"
	"tradepulse/internal/sinks"
	"tradepulse/internal/tradewindow"
)

// Processor is the single consumer of the message ring.
type Processor struct {
	r       *ring.MessageRing
	symbols *models.SymbolTable
	windows []*tradewindow.Window
	sink    sinks.Sink
	log     *logger.Logger
}

// New builds a Processor. windows must be indexed by symbol id and
// sized to the symbol table (symbols.Len()).
func New(r *ring.MessageRing, symbols *models.SymbolTable, windows []*tradewindow.Window, sink sinks.Sink, log *logger.Logger) *Processor {
	return &Processor{r: r, symbols: symbols, windows: windows, sink: sink, log: log}
}

// Run pops frames until the ring is closed and drained, parsing each
// one and, on success, updating the corresponding window and emitting
// the trade's latency and raw-log rows. It returns nil on a clean
// shutdown (ring closed and empty).
func (p *Processor) Run() error {
	for {
		raw, ok := p.r.Pop()
		if !ok {
			return nil
		}
		p.process(raw)
	}
}

func (p *Processor) process(raw models.RawMessage) {
	msg, ok := parser.ParseTradeFrame(raw.RawText, p.symbols)
	if !ok {
		return
	}
	msg.ReceiveTsMs = raw.ReceiveTsMs

	processTsMs := clock.NowMs()

	symbolName := p.symbols.Name(msg.SymbolID)
	if err := p.sink.LogTradeRaw(symbolName, msg.RawText); err != nil {
		p.log.Error("failed to log raw trade for %s: %v", symbolName, err)
	}
	if err := p.sink.LogLatency(symbolName, models.LatencyRecord{
		SymbolID:     msg.SymbolID,
		ExchangeTsMs: msg.ExchangeTsMs,
		ReceiveTsMs:  msg.ReceiveTsMs,
		ProcessTsMs:  processTsMs,
	}); err != nil {
		p.log.Error("failed to log latency for %s: %v", symbolName, err)
	}

	// Insertion into the window happens after the trade's raw and latency
	// records are produced, matching the ingest pipeline's log-then-index order.
	p.windows[msg.SymbolID].AddTrade(msg.ExchangeTsMs, msg.Price, msg.Size)
}
