// Command seed bulk-loads local ECB and NBU history bundles into the
// database, unconditionally. Meant for operators doing an initial import;
// the API server's own startup seeding only runs against an empty store.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/ratewatch/currency-rates-service/internal/platform/config"
	"github.com/ratewatch/currency-rates-service/internal/repositories/database/pgsql"
	"github.com/ratewatch/currency-rates-service/internal/seed"
	"github.com/ratewatch/currency-rates-service/pkg/database"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ecbPath := flag.String("ecb", cfg.ECBSeedPath, "path to the ECB full-history XML bundle")
	nbuPath := flag.String("nbu", cfg.NBUSeedPath, "path to the NBU full-history JSON bundle")
	flag.Parse()

	ctx := context.Background()

	dbPool, err := database.NewPgxPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.ClosePgxPool(dbPool)

	if err := database.RunMigrations(cfg.DatabaseURL, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repos := pgsql.NewRepositoryProvider(dbPool)

	if err := seed.Run(ctx, repos, *ecbPath, *nbuPath, logger); err != nil {
		logger.Error("Seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
