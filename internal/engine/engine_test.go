package engine

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"tradepulse/internal/config"
	"tradepulse/internal/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Name:     "tradepulse-test",
		LogLevel: "INFO",
		Server: config.ServerConfig{
			Host: "127.0.0.1",
			Port: 18080,
		},
		Exchange: config.ExchangeConfig{
			WebsocketURL: "ws://127.0.0.1:1/nonexistent",
			Symbols:      []string{"BTC-USDT", "ETH-USDT"},
		},
		Storage: config.StorageConfig{
			DBType: "sqlite",
			DBPath: filepath.Join(dir, "tradepulse.db"),
		},
		DataDir: filepath.Join(dir, "data"),
	}
}

// TestEngineStartsAndStopsCleanly builds a full engine against an
// unreachable exchange endpoint (so transport spins on backoff without
// ever delivering data) and checks that canceling the context brings
// every component down within a reasonable deadline.
func TestEngineStartsAndStopsCleanly(t *testing.T) {
	cfg := testConfig(t)
	log := logger.New("engine-test", "info")

	e, err := New(cfg, log)
	if err != nil {
		t.Fatalf("failed to build engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error from engine.Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("engine did not shut down within deadline")
	}
}
