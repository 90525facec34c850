/*
Package main is the entry point for the Lemuria world server.

It is responsible for loading configuration, initializing the global logging system,
opening the world database, setting up the HTTP server and the presence registry,
and gracefully handling operating system interrupt signals (SIGINT, SIGTERM)
to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lemuria/internal/app/db"
	"lemuria/internal/app/presence"
	"lemuria/internal/app/world"
	"lemuria/internal/configs"
	"lemuria/internal/handler"
	"lemuria/internal/pkg/logx"
)

func main() {
	// Load configuration from environment variables
	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	logx.InitGlobalLogger(logx.Options{
		Development: cfg.IsDevelopment(),
		File:        cfg.LogFile,
		MaxSizeMB:   cfg.LogMaxSizeMB,
		MaxAgeDays:  cfg.LogMaxAgeDays,
		MaxBackups:  cfg.LogMaxBackups,
	})
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Dur("position_update_tick", cfg.PositionUpdateTick).
		Int("world_tick_overrides", len(cfg.WorldPositionTicks)).
		Msg("Configuration loaded successfully")

	pool, err := db.NewPool(cfg.DatabaseDSN)
	if err != nil {
		logx.Fatal(err, "Failed to initialize database")
	}
	defer pool.Close()

	sqlDB := db.OpenDB(pool)
	defer sqlDB.Close()

	// Create a context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	manager := presence.NewManager(cfg.HeartbeatInterval)
	worlds := world.NewService(db.NewWorldRepository(sqlDB), manager, world.CacheOptions{
		TTL:     cfg.CacheTTL,
		MaxKeys: cfg.CacheMaxKeys,
	})

	router := handler.Router(ctx, &handler.AppDeps{
		Presence: manager,
		Worlds:   worlds,
		Config:   cfg,
	})

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Lemuria server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server with a timeout of 5 seconds.
	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	manager.Shutdown()

	logx.Info("Server gracefully stopped.")
}
