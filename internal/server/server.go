// Package server exposes the pipeline's observability surface: a small
// gin HTTP API plus a gorilla/websocket hub that fans out every VWAP,
// correlation, and scheduler-drift record the moment a tick produces
// it. Nothing in the core pipeline depends on this package; it exists
// purely so a dashboard can watch the pipeline run.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tradepulse/internal/logger"
	"tradepulse/internal/models"
	"tradepulse/internal/tradewindow"
	"tradepulse/internal/vwaphistory"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Server is the observability hub and its HTTP surface.
type Server struct {
	host string
	port int
	log  *logger.Logger

	symbols   *models.SymbolTable
	windows   []*tradewindow.Window
	histories []*vwaphistory.History

	engine *gin.Engine
	http   *http.Server

	clients     map[*client]struct{}
	clientCount atomic.Int32
	broadcast   chan *models.HubMessage
	register    chan *client
	unregister  chan *client
}

// New builds a Server bound to host:port, reading live state from
// windows and histories, both indexed by symbol id.
func New(host string, port int, log *logger.Logger, symbols *models.SymbolTable, windows []*tradewindow.Window, histories []*vwaphistory.History) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		host:       host,
		port:       port,
		log:        log,
		symbols:    symbols,
		windows:    windows,
		histories:  histories,
		engine:     gin.New(),
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan *models.HubMessage, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
	}
	s.engine.Use(gin.Recovery())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", s.getHealthz)
	s.engine.GET("/symbols", s.getSymbols)
	s.engine.GET("/snapshot", s.getSnapshot)
	s.engine.GET("/ws", s.handleWebSocket)
}

// Run starts the HTTP listener and hub loop, blocking until ctx is
// canceled, at which point it shuts the HTTP server down gracefully.
func (s *Server) Run(ctx context.Context) error {
	go s.run(ctx)

	s.http = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("observability server listening on %s", s.http.Addr)
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.http.Shutdown(shutdownCtx); err != nil {
			s.log.Error("observability server shutdown error: %v", err)
		}
		<-errCh
		return nil
	case err := <-errCh:
		return err
	}
}

// BroadcastVwap fans a fresh VWAP record out to every connected client.
func (s *Server) BroadcastVwap(rec models.VwapRecord) {
	s.broadcast <- &models.HubMessage{Kind: "vwap", Vwap: &rec}
}

// BroadcastCorrelation fans a fresh correlation record out to every
// connected client.
func (s *Server) BroadcastCorrelation(rec models.CorrelationRecord) {
	s.broadcast <- &models.HubMessage{Kind: "correlation", Correlation: &rec}
}

// BroadcastScheduler fans a fresh scheduler-drift record out to every
// connected client.
func (s *Server) BroadcastScheduler(rec models.SchedulerRecord) {
	s.broadcast <- &models.HubMessage{Kind: "scheduler", Scheduler: &rec}
}

func (s *Server) getHealthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"connections": s.clientCount.Load(),
	})
}

func (s *Server) getSymbols(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"symbols": s.symbols.Names()})
}

type snapshotEntry struct {
	Symbol       string   `json:"symbol"`
	CurrentVwap  *float64 `json:"current_vwap"`
	LastMinuteMs int64    `json:"last_minute_ms,omitempty"`
	LastVwap     *float64 `json:"last_vwap,omitempty"`
	HasHistory   bool     `json:"has_history"`
}

// getSnapshot returns each symbol's current window VWAP for a
// dashboard's initial render. A window with no trades yet has an
// undefined VWAP (SnapshotVWAP returns NaN, which encoding/json cannot
// marshal), so CurrentVwap and LastVwap are nil rather than that NaN.
func (s *Server) getSnapshot(c *gin.Context) {
	entries := make([]snapshotEntry, s.symbols.Len())
	for id := 0; id < s.symbols.Len(); id++ {
		entry := snapshotEntry{Symbol: s.symbols.Name(id)}
		if vwap := s.windows[id].SnapshotVWAP(); !math.IsNaN(vwap) {
			entry.CurrentVwap = &vwap
		}
		if points, ok := s.histories[id].GetRecent(1); ok {
			entry.HasHistory = true
			entry.LastMinuteMs = points[0].MinuteTsMs
			if !math.IsNaN(points[0].Vwap) {
				lastVwap := points[0].Vwap
				entry.LastVwap = &lastVwap
			}
		}
		entries[id] = entry
	}
	c.JSON(http.StatusOK, gin.H{"snapshot": entries})
}

func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.log.Warning("failed to upgrade websocket: %v", err)
		return
	}

	cl := &client{hub: s, conn: conn, send: make(chan interface{}, 64)}
	s.register <- cl

	go cl.writePump()
	go cl.readPump()
}
