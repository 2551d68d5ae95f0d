package engine

import (
	"tradepulse/internal/models"
	"tradepulse/internal/server"
	"tradepulse/internal/sinks"
)

// broadcastSink durably persists every record through an inner sink and
// additionally fans the three record kinds a dashboard cares about out
// over the observability hub. Persistence and broadcast failures are
// independent: a slow or absent dashboard client never affects what
// gets written to disk or a database.
type broadcastSink struct {
	sinks.Sink
	server *server.Server
}

func (b *broadcastSink) LogVwap(symbolName string, rec models.VwapRecord) error {
	err := b.Sink.LogVwap(symbolName, rec)
	b.server.BroadcastVwap(rec)
	return err
}

func (b *broadcastSink) LogCorrelation(symbolName string, rec models.CorrelationRecord) error {
	err := b.Sink.LogCorrelation(symbolName, rec)
	b.server.BroadcastCorrelation(rec)
	return err
}

func (b *broadcastSink) LogScheduler(rec models.SchedulerRecord) error {
	err := b.Sink.LogScheduler(rec)
	b.server.BroadcastScheduler(rec)
	return err
}
