// Package ingest is the thin boundary between the transport goroutine
// and the rest of the pipeline: it stamps a receive time on every raw
// frame and pushes it onto the message ring, deliberately doing no
// parsing so the socket read loop is never slowed by it.
package ingest

import (
	"tradepulse/internal/clock"
	"tradepulse/internal/models"
	"tradepulse/internal/ring"
)

// Ingester stamps and enqueues raw frames from the transport.
type Ingester struct {
	r *ring.MessageRing
}

// New builds an Ingester that pushes onto r.
func New(r *ring.MessageRing) *Ingester {
	return &Ingester{r: r}
}

// Handle is passed directly as a transport.Handler.
func (in *Ingester) Handle(raw string) {
	in.r.Push(models.RawMessage{
		RawText:     raw,
		ReceiveTsMs: clock.NowMs(),
	})
}
