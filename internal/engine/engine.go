// Package engine wires every pipeline component together and owns
// their combined lifecycle: start them all, propagate the first
// failure, and bring everything down cleanly on shutdown.
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"tradepulse/internal/barrier"
	"tradepulse/internal/config"
	"tradepulse/internal/corrworker"
	"tradepulse/internal/ingest"
	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/parser"
	"tradepulse/internal/processor"
	"tradepulse/internal/ring"
	"tradepulse/internal/scheduler"
	"tradepulse/internal/server"
	"tradepulse/internal/sinks"
	"tradepulse/internal/tradewindow"
	"tradepulse/internal/transport"
	"tradepulse/internal/vwaphistory"
	"tradepulse/internal/vwapworker"
)

// numComputeParticipants is the scheduler plus the vwap and correlation
// workers, the fixed set of goroutines synchronized on each tick's pair
// of barriers.
const numComputeParticipants = 3

// Engine holds every long-lived component of one running pipeline.
type Engine struct {
	cfg     *config.Config
	log     *logger.Logger
	symbols *models.SymbolTable

	msgRing   *ring.MessageRing
	windows   []*tradewindow.Window
	histories []*vwaphistory.History

	durableSink sinks.Sink
	server      *server.Server

	transportClient *transport.Client
	ingester        *ingest.Ingester
	proc            *processor.Processor
	sched           *scheduler.Scheduler
	vwapW           *vwapworker.Worker
	corrW           *corrworker.Worker
}

// New builds every component from cfg but starts nothing.
func New(cfg *config.Config, log *logger.Logger) (*Engine, error) {
	symbols := models.NewSymbolTable(cfg.Exchange.Symbols)

	windows := make([]*tradewindow.Window, symbols.Len())
	histories := make([]*vwaphistory.History, symbols.Len())
	for i := range windows {
		windows[i] = tradewindow.New(models.WindowCapacity)
		histories[i] = vwaphistory.New(models.VwapHistorySizeMinutes)
	}

	durableSink, err := buildDurableSink(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build durable sink: %w", err)
	}

	srv := server.New(cfg.Server.Host, cfg.Server.Port, log.With("component", "server"), symbols, windows, histories)
	broadcastingSink := &broadcastSink{Sink: durableSink, server: srv}

	msgRing := ring.NewMessageRing(models.RawTradeQueueSize)

	startBarrier := barrier.New(numComputeParticipants)
	doneBarrier := barrier.New(numComputeParticipants)

	sched := scheduler.New(startBarrier, doneBarrier, broadcastingSink, log.With("component", "scheduler"))

	vwapW := vwapworker.New(startBarrier, doneBarrier, symbols, windows, histories, broadcastingSink, log.With("component", "vwap_worker"), func() int64 { return sched.CurrentMinuteMs })
	corrW := corrworker.New(startBarrier, doneBarrier, symbols, histories, broadcastingSink, log.With("component", "correlation_worker"), func() int64 { return sched.CurrentMinuteMs }, models.MovingAvgPoints, models.MaxLagMinutes)

	subscribeFrame := parser.SubscribePayload(cfg.Exchange.Symbols)
	transportClient := transport.New(cfg.Exchange.WebsocketURL, subscribeFrame, log.With("component", "transport"))

	ingester := ingest.New(msgRing)
	proc := processor.New(msgRing, symbols, windows, broadcastingSink, log.With("component", "processor"))

	return &Engine{
		cfg:             cfg,
		log:             log,
		symbols:         symbols,
		msgRing:         msgRing,
		windows:         windows,
		histories:       histories,
		durableSink:     durableSink,
		server:          srv,
		transportClient: transportClient,
		ingester:        ingester,
		proc:            proc,
		sched:           sched,
		vwapW:           vwapW,
		corrW:           corrW,
	}, nil
}

func buildDurableSink(cfg *config.Config) (sinks.Sink, error) {
	fileSink, err := sinks.NewFileSink(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open file sink: %w", err)
	}

	switch cfg.Storage.DBType {
	case "sqlite":
		sqlSink, err := sinks.NewSQLite(cfg.Storage.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open sqlite sink: %w", err)
		}
		return sinks.NewMultiSink(fileSink, sqlSink), nil
	case "postgres":
		sqlSink, err := sinks.NewPostgres(cfg.Storage.DBConnectionString)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres sink: %w", err)
		}
		return sinks.NewMultiSink(fileSink, sqlSink), nil
	default:
		return nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.DBType)
	}
}

// Run starts every component and blocks until ctx is canceled or one of
// them fails, returning the first error encountered. On return every
// component has stopped and the durable sink has been closed.
func (e *Engine) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return e.transportClient.Run(gctx, e.ingester.Handle)
	})

	g.Go(func() error {
		<-gctx.Done()
		e.msgRing.Close()
		return nil
	})

	g.Go(e.proc.Run)

	g.Go(func() error {
		return e.sched.Run(gctx)
	})

	g.Go(func() error {
		return e.vwapW.Run(gctx)
	})

	g.Go(func() error {
		return e.corrW.Run(gctx)
	})

	g.Go(func() error {
		return e.server.Run(gctx)
	})

	err := g.Wait()

	if closeErr := e.durableSink.Close(); closeErr != nil {
		e.log.Error("failed to close durable sink: %v", closeErr)
	}

	return err
}
