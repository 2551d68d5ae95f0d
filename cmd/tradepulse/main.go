package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"tradepulse/internal/config"
	"tradepulse/internal/engine"
	"tradepulse/internal/logger"
)

func main() {
	configPath := flag.String("config", "config/default.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Name, cfg.LogLevel)
	defer log.Sync()

	e, err := engine.New(cfg, log)
	if err != nil {
		log.Critical("failed to build engine: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-quit
		log.Info("received signal %v, shutting down", sig)
		cancel()
	}()

	log.Info("starting %s", cfg.Name)
	if err := e.Run(ctx); err != nil {
		log.Critical("engine exited with error: %v", err)
	}
	log.Info("shutdown complete")
}
