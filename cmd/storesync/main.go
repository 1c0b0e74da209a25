package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v4/stdlib"
	"github.com/joho/godotenv"
	_ "github.com/mattn/go-sqlite3"

	"github.com/branddash/storesync/internal/autosync"
	"github.com/branddash/storesync/internal/config"
	"github.com/branddash/storesync/internal/db"
	"github.com/branddash/storesync/internal/extract"
	"github.com/branddash/storesync/internal/server"
	"github.com/branddash/storesync/internal/shopify"
)

func main() {
	// Local development overrides; absence is fine.
	_ = godotenv.Load()

	// Parse command-line flags
	configFile := flag.String("config", "", "Path to configuration file (TOML)")
	flag.Parse()

	// Load configuration
	cfg, err := config.LoadConfig(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Initialize structured logger
	logger := newLogger(cfg.Logging)
	slog.SetDefault(logger)

	slog.Info("starting storesync")
	slog.Info("database configuration", "driver", cfg.Database.Driver)
	slog.Info("http api", "address", cfg.HTTP.Address, "port", cfg.HTTP.Port)

	// Open database connection with pool settings
	database, err := db.OpenWithConfig(cfg.Database)
	if err != nil {
		slog.Error("failed to connect to database", "error", err, "driver", cfg.Database.Driver)
		os.Exit(1)
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := database.InitSchema(ctx); err != nil {
		slog.Error("failed to initialize schema", "error", err)
		os.Exit(1)
	}
	slog.Info("database schema ready")

	// Wire the sync pipeline.
	factory := extract.NewShopifyFactory(
		shopify.WithAPIVersion(cfg.Shopify.APIVersion),
		shopify.WithPageSize(cfg.Shopify.PageSize),
		shopify.WithRetryPolicy(shopify.RetryPolicy{
			MaxRetries: cfg.Shopify.MaxRetries,
			BaseDelay:  cfg.Shopify.RetryBaseDelay,
		}),
		shopify.WithLogger(logger),
	)
	extractor := extract.NewExtractor(database, factory, logger)
	registrar := extract.NewRegistrar(database, factory, cfg.Sync.WebhookBaseURL, logger)

	scheduler := autosync.NewScheduler(database, extractor, cfg.AutoSync, logger)
	go scheduler.Start(ctx)

	api := server.New(ctx, database, extractor, registrar, logger)
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Address, cfg.HTTP.Port),
		Handler: api.Router(),
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("shutting down gracefully", "signal", sig.String())
	case err := <-errChan:
		slog.Error("http server failed", "error", err)
	}

	// Stop the scheduler and any in-flight background syncs.
	cancel()
	scheduler.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("http shutdown failed", "error", err)
	}
}

func newLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "text" {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}
