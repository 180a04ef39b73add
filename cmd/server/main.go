// Package main is the entry point for the Vermion dashboard backend.
// It wires the database, the Discord OAuth client and the HTTP API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Vermion-Bot/vermion-common/internal/auth"
	"github.com/Vermion-Bot/vermion-common/internal/config"
	"github.com/Vermion-Bot/vermion-common/internal/database"
	"github.com/Vermion-Bot/vermion-common/internal/ratelimit"
	"github.com/Vermion-Bot/vermion-common/internal/remoteconfig"
	"github.com/Vermion-Bot/vermion-common/internal/web"
	"github.com/Vermion-Bot/vermion-common/pkg/logger"
)

// migrationsPath is relative to the binary execution location.
const migrationsPath = "internal/database/migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		// Sync errors on stdout/stderr are expected for non-syncable
		// file descriptors and can be safely ignored
		_ = log.Sync()
	}()

	log.Info("starting Vermion dashboard backend",
		zap.String("environment", cfg.Server.Env),
		zap.String("http_port", cfg.Server.HTTPPort),
	)

	db, err := database.NewDB(&cfg.Database, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("failed to close database connection", zap.Error(err))
		}
	}()

	if err := db.RunMigrations(migrationsPath); err != nil {
		log.Fatal("failed to run migrations", zap.Error(err))
	}

	db.SetSessionLifetime(time.Duration(cfg.Session.ExpiryDays) * 24 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	db.StartCleanupJob(ctx, 30*time.Minute)

	discordClient := auth.NewDiscordClient(&cfg.Discord, log)
	discordClient.SetRateLimiter(ratelimit.New(log))

	tokenTTL := time.Duration(cfg.Session.TokenTTLMinutes) * time.Minute
	handlers := web.NewHandlers(db, discordClient, tokenTTL, log)
	handlers.SetConfigClient(remoteconfig.NewClient(cfg.RemoteConfig.APIURL, log))
	server := web.NewServer(handlers, cfg.Server.HTTPPort, log)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Serve(); err != nil {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		log.Fatal("HTTP server error", zap.Error(err))
	case sig := <-sigChan:
		log.Info("received shutdown signal", zap.String("signal", sig.String()))
	}

	log.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("failed to shutdown HTTP server gracefully", zap.Error(err))
	}

	log.Info("server shut down successfully")
}
