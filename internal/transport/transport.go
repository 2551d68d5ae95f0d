// Package transport maintains the WebSocket connection to the exchange
// trade feed, resubscribing and reconnecting with jittered exponential
// backoff whenever the connection drops.
package transport

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"nhooyr.io/websocket"

	"tradepulse/internal/logger"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 5 * time.Second
)

// Handler is invoked with each raw text frame received from the feed.
type Handler func(raw string)

// Client dials a single exchange WebSocket endpoint, sends a
// subscription frame on connect, and hands every subsequent text frame
// to a Handler until the context is canceled.
type Client struct {
	url            string
	subscribeFrame string
	log            *logger.Logger
}

// New builds a client for url, sending subscribeFrame immediately after
// each successful dial.
func New(url, subscribeFrame string, log *logger.Logger) *Client {
	return &Client{url: url, subscribeFrame: subscribeFrame, log: log}
}

// Run blocks, reconnecting with backoff on every failure, until ctx is
// canceled. It returns nil only when ctx is canceled; any other
// terminal condition is a bug in this loop, since read/dial errors are
// handled by reconnecting.
func (c *Client) Run(ctx context.Context, handle Handler) error {
	backoff := minBackoff
	for {
		err := c.runOnce(ctx, handle, func() { backoff = minBackoff })
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			c.log.Warning("transport connection lost: %v (reconnecting in %v)", err, backoff)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(addJitter(backoff)):
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// runOnce dials, subscribes and reads until the connection fails or ctx
// is canceled. onConnected is invoked once the subscribe frame has been
// sent, so a long-lived connection resets the caller's backoff before
// its next failure.
func (c *Client) runOnce(ctx context.Context, handle Handler, onConnected func()) error {
	ws, _, err := websocket.Dial(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", c.url, err)
	}
	defer ws.Close(websocket.StatusNormalClosure, "shutdown")

	if err := ws.Write(ctx, websocket.MessageText, []byte(c.subscribeFrame)); err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}
	onConnected()

	for {
		_, data, err := ws.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		handle(string(data))
	}
}

func addJitter(d time.Duration) time.Duration {
	jitter := time.Duration((rand.Float64() - 0.5) * float64(200*time.Millisecond))
	out := d + jitter
	if out < 0 {
		return 0
	}
	return out
}
