// Package seed loads bundled full-history files into storage so a fresh
// deployment can answer historical queries without hammering the upstreams.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
	"github.com/ratewatch/currency-rates-service/internal/providers"
)

// SeedIfEmpty runs Run only when the store holds no rates at all. Startup
// calls this; an already-populated store is left alone.
func SeedIfEmpty(ctx context.Context, repo portsrepo.RepositoryProvider, ecbPath, nbuPath string, logger *slog.Logger) error {
	count, err := repo.GetRatesCount(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to check rates count before seeding: %w", err)
	}
	if count > 0 {
		logger.Info("Store already has rates, skipping seed", slog.Int64("count", count))
		return nil
	}
	return Run(ctx, repo, ecbPath, nbuPath, logger)
}

// Run loads both bundled history files, logging a seeded sync-log row per
// provider. A missing file is skipped with a warning so deployments without
// bundles still boot.
func Run(ctx context.Context, repo portsrepo.RepositoryProvider, ecbPath, nbuPath string, logger *slog.Logger) error {
	logger.Info("Starting database seeding")

	total := 0

	count, err := seedFile(ctx, repo, ecbPath, providers.ECBName, providers.ParseECBHistory, logger)
	if err != nil {
		return err
	}
	total += count

	count, err = seedFile(ctx, repo, nbuPath, providers.NBUName, providers.ParseNBUSeed, logger)
	if err != nil {
		return err
	}
	total += count

	logger.Info("Database seeding completed", slog.Int("total_records", total))
	return nil
}

// seedFile parses one bundle with the provider's own parser and stores it.
func seedFile(
	ctx context.Context,
	repo portsrepo.RepositoryProvider,
	path string,
	provider string,
	parse func([]byte, *slog.Logger) ([]domain.DailyRates, error),
	logger *slog.Logger,
) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("Seed file not found, skipping",
			slog.String("provider", provider), slog.String("path", path))
		return 0, nil
	}

	days, err := parse(data, logger)
	if err != nil {
		return 0, fmt.Errorf("failed to parse %s seed file %s: %w", provider, path, err)
	}

	count, err := repo.StoreDailyRatesBatch(ctx, days)
	if err != nil {
		return 0, fmt.Errorf("failed to store %s seed data: %w", provider, err)
	}
	if err := repo.LogSync(ctx, provider, len(days), domain.SyncStatusSeeded); err != nil {
		return 0, fmt.Errorf("failed to record %s seed run: %w", provider, err)
	}

	logger.Info("Seeded provider history",
		slog.String("provider", provider), slog.Int("records", count), slog.Int("days", len(days)))
	return count, nil
}
