package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
	"github.com/ratewatch/currency-rates-service/internal/providers"
)

// SyncService pulls fresh rates from the registered providers into
// storage. Every trigger path, startup, cron and HTTP, runs through the
// same methods here.
type SyncService struct {
	repo     portsrepo.RepositoryProvider
	registry *providers.Registry
	logger   *slog.Logger
	group    singleflight.Group
	now      func() time.Time
}

// SyncOption configures a SyncService.
type SyncOption func(*SyncService)

// WithSyncClock overrides the reference clock, used by tests.
func WithSyncClock(now func() time.Time) SyncOption {
	return func(s *SyncService) {
		s.now = now
	}
}

// NewSyncService creates a new SyncService.
func NewSyncService(repo portsrepo.RepositoryProvider, registry *providers.Registry, logger *slog.Logger, opts ...SyncOption) *SyncService {
	s := &SyncService{
		repo:     repo,
		registry: registry,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SyncProvider brings one provider up to date and records the outcome in
// the sync log. Concurrent calls for the same provider coalesce into a
// single run sharing one result; different providers run independently.
func (s *SyncService) SyncProvider(ctx context.Context, name string) (int, error) {
	provider, ok := s.registry.Get(name)
	if !ok {
		return 0, fmt.Errorf("%w: %s", apperrors.ErrUnknownProvider, name)
	}

	result, err, _ := s.group.Do(name, func() (any, error) {
		count, runErr := s.runSync(ctx, provider)

		status := domain.SyncStatusSuccess
		if runErr != nil {
			count = 0
			status = "error: " + runErr.Error()
		}
		if logErr := s.repo.LogSync(ctx, name, count, status); logErr != nil {
			s.logger.Error("failed to record sync outcome",
				slog.String("provider", name), slog.String("error", logErr.Error()))
			if runErr == nil {
				runErr = logErr
			}
		}
		return count, runErr
	})

	count, _ := result.(int)
	return count, err
}

// SyncAll syncs every registered provider concurrently. One provider's
// failure never aborts the others; outcomes come back in registration
// order.
func (s *SyncService) SyncAll(ctx context.Context) []domain.SyncOutcome {
	all := s.registry.All()
	outcomes := make([]domain.SyncOutcome, len(all))

	g, ctx := errgroup.WithContext(ctx)
	for i, provider := range all {
		g.Go(func() error {
			name := provider.Name()
			count, err := s.SyncProvider(ctx, name)
			outcomes[i] = domain.SyncOutcome{Provider: name, Records: count, Err: err}
			return nil
		})
	}
	_ = g.Wait()

	for _, outcome := range outcomes {
		if outcome.Err != nil {
			s.logger.Error("provider sync failed",
				slog.String("provider", outcome.Provider), slog.String("error", outcome.Err.Error()))
		} else {
			s.logger.Info("provider sync finished",
				slog.String("provider", outcome.Provider), slog.Int("records", outcome.Records))
		}
	}
	return outcomes
}

// runSync is the per-provider decision procedure: full history on first
// contact, nothing when already current, otherwise the incremental window
// from the last stored date through today. Re-fetching the last stored day
// is deliberate, the upsert dedupes it.
func (s *SyncService) runSync(ctx context.Context, provider providers.Provider) (int, error) {
	name := provider.Name()
	today := domain.Day(s.now())

	last, err := s.repo.GetLatestDate(ctx, name)
	if err != nil {
		return 0, err
	}

	var fetched []domain.DailyRates
	switch {
	case last == nil:
		s.logger.Info("first sync, fetching full history", slog.String("provider", name))
		fetched, err = provider.FetchFullHistory(ctx)
	case !last.Before(today):
		s.logger.Info("provider already up to date", slog.String("provider", name))
		return 0, nil
	default:
		s.logger.Info("fetching incremental range",
			slog.String("provider", name),
			slog.String("from", domain.FormatDate(*last)),
			slog.String("to", domain.FormatDate(today)))
		fetched, err = provider.FetchRange(ctx, *last, today)
	}
	if err != nil {
		return 0, err
	}

	count, err := s.repo.StoreDailyRatesBatch(ctx, fetched)
	if err != nil {
		return 0, err
	}

	// Catalog refresh failures only affect display names; the rate rows
	// are already stored at this point.
	if currencies, cerr := provider.SupportedCurrencies(ctx); cerr != nil {
		s.logger.Warn("failed to refresh currency catalog",
			slog.String("provider", name), slog.String("error", cerr.Error()))
	} else if cerr := s.repo.StoreCurrencies(ctx, name, currencies); cerr != nil {
		s.logger.Warn("failed to store currency catalog",
			slog.String("provider", name), slog.String("error", cerr.Error()))
	}

	return count, nil
}
