package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"arbitrage/internal/api"
	"arbitrage/internal/bus"
	"arbitrage/internal/config"
	"arbitrage/internal/executor"
	"arbitrage/internal/toggles"
	"arbitrage/internal/websocket"
	"arbitrage/pkg/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.InitLogger(utils.LogConfig{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	defer logger.Sync()

	b := bus.NewRedisBus(cfg.Bus.Addr, cfg.Bus.Password, cfg.Bus.DB)
	defer b.Close()

	store := toggles.NewStore(b, cfg.Executor.ToggleRefresh, cfg.Toggles.AutoTrade, cfg.Toggles.Mode)
	engine := executor.New(b, cfg.Executor, store, logger)

	hub := websocket.NewHub()
	go hub.Run()
	engine.SetHub(hub)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- engine.Run(ctx)
	}()

	router := api.SetupRoutes(api.Dependencies{Component: "executor", Trades: engine, Hub: hub})
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("starting executor http surface", utils.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server failed", utils.Err(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && err != context.Canceled {
			logger.Error("executor loop exited", utils.Err(err))
		}
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced http shutdown", utils.Err(err))
	}

	logger.Info("executor exited")
}
