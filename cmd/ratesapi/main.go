package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/ratewatch/currency-rates-service/internal/core/services"
	"github.com/ratewatch/currency-rates-service/internal/handlers"
	"github.com/ratewatch/currency-rates-service/internal/middleware"
	"github.com/ratewatch/currency-rates-service/internal/platform/config"
	"github.com/ratewatch/currency-rates-service/internal/providers"
	"github.com/ratewatch/currency-rates-service/internal/repositories/database/pgsql"
	"github.com/ratewatch/currency-rates-service/internal/seed"
	"github.com/ratewatch/currency-rates-service/pkg/database"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

// @title Currency Rates API
// @version 1.0
// @description Daily currency exchange rates aggregated from multiple providers.

// @host localhost:8080
// @BasePath /
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Rebuild the logger at the configured verbosity (Debug in dev, Info
	// in production)
	logLevel := slog.LevelDebug
	if cfg.IsProduction {
		logLevel = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)
	logger.Info("Database connection pool established.")

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Wire repositories, providers and services
	repos := pgsql.NewRepositoryProvider(dbPool)

	httpClient := &http.Client{Timeout: cfg.HTTPClientTimeout}
	registry := providers.NewRegistry(
		providers.NewECB(httpClient, logger),
		providers.NewNBU(httpClient, logger),
	)
	logger.Info("Registered providers", slog.Any("names", registry.Names()))

	container := services.NewServiceContainer(repos, registry, logger)

	// Seed from bundled files if enabled and the store is empty. Failures
	// are logged, not fatal: the startup sync can still fill the store.
	if cfg.SeedOnStartup {
		if err := seed.SeedIfEmpty(context.Background(), repos, cfg.ECBSeedPath, cfg.NBUSeedPath, logger); err != nil {
			logger.Error("Seeding failed", slog.String("error", err.Error()))
		}
	}

	// Initial sync if enabled (runs in background so the server starts
	// immediately)
	if cfg.SyncOnStartup {
		go func() {
			jobLogger := logger.With(slog.String("job", "startup_sync"))
			jobLogger.Info("Running initial sync in background")
			container.Sync.SyncAll(context.Background())
			jobLogger.Info("Initial sync completed")
		}()
	}

	// Scheduled sync. The expression carries a seconds field.
	scheduler := cron.New(cron.WithSeconds())
	if _, err := scheduler.AddFunc(cfg.SyncCron, func() {
		jobLogger := logger.With(slog.String("job", "scheduled_sync"))
		jobLogger.Info("Running scheduled sync")
		container.Sync.SyncAll(context.Background())
	}); err != nil {
		logger.Error("Failed to schedule sync job", slog.String("cron", cfg.SyncCron), slog.String("error", err.Error()))
		os.Exit(1)
	}
	scheduler.Start()
	defer scheduler.Stop()
	logger.Info("Scheduler started", slog.String("cron", cfg.SyncCron))

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := handlers.RegisterRoutes(r, cfg, container); err != nil {
		logger.Error("Failed to register routes", slog.String("error", err.Error()))
		os.Exit(1)
	}

	addr := cfg.Host + ":" + cfg.Port
	logger.Info("Server starting", slog.String("addr", addr))
	if err := r.Run(addr); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
