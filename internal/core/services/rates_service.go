package services

import (
	"context"
	"fmt"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
	"github.com/ratewatch/currency-rates-service/internal/providers"
)

// RatesService answers rate queries from storage. Stored tables are always
// pivot-based; every response is rebased to the requested base, filtered to
// the requested symbols and scaled by the requested amount.
type RatesService struct {
	repo     portsrepo.RepositoryProvider
	registry *providers.Registry
}

// NewRatesService creates a new RatesService.
func NewRatesService(repo portsrepo.RepositoryProvider, registry *providers.Registry) *RatesService {
	return &RatesService{
		repo:     repo,
		registry: registry,
	}
}

// GetLatest returns rates for the most recent stored date across all
// providers.
func (s *RatesService) GetLatest(ctx context.Context, base string, symbols []string, amount float64) (domain.RatesResult, error) {
	latest, err := s.repo.GetLatestDate(ctx, "")
	if err != nil {
		return domain.RatesResult{}, fmt.Errorf("failed to resolve latest rate date: %w", err)
	}
	if latest == nil {
		return domain.RatesResult{}, fmt.Errorf("%w: no rates stored yet", apperrors.ErrNoData)
	}
	return s.GetRatesForDate(ctx, *latest, base, symbols, amount)
}

// GetRatesForDate returns rates for one date, merged across providers.
func (s *RatesService) GetRatesForDate(ctx context.Context, date time.Time, base string, symbols []string, amount float64) (domain.RatesResult, error) {
	date = domain.Day(date)

	stored, err := s.repo.GetRatesForDate(ctx, date, "")
	if err != nil {
		return domain.RatesResult{}, fmt.Errorf("failed to load rates for %s: %w", domain.FormatDate(date), err)
	}
	if len(stored) == 0 {
		return domain.RatesResult{}, fmt.Errorf("%w: no rates stored for %s", apperrors.ErrNoData, domain.FormatDate(date))
	}

	converted, err := convertTable(stored, base, symbols, amount)
	if err != nil {
		return domain.RatesResult{}, err
	}

	return domain.RatesResult{
		Amount: amount,
		Base:   base,
		Date:   date,
		Rates:  converted,
	}, nil
}

// GetTimeSeries returns per-day rates for every stored day in the
// inclusive window. Days storage has nothing for are left out.
func (s *RatesService) GetTimeSeries(ctx context.Context, start, end time.Time, base string, symbols []string, amount float64) (domain.TimeSeriesResult, error) {
	start, end = domain.Day(start), domain.Day(end)
	if start.After(end) {
		return domain.TimeSeriesResult{}, fmt.Errorf("%w: start date must be before or equal to end date", apperrors.ErrInvalidDate)
	}

	stored, err := s.repo.GetRatesForRange(ctx, start, end, "")
	if err != nil {
		return domain.TimeSeriesResult{}, fmt.Errorf("failed to load rates for range: %w", err)
	}
	if len(stored) == 0 {
		return domain.TimeSeriesResult{}, fmt.Errorf("%w: no rates stored between %s and %s",
			apperrors.ErrNoData, domain.FormatDate(start), domain.FormatDate(end))
	}

	series := make(map[time.Time]map[string]float64, len(stored))
	for date, table := range stored {
		converted, err := convertTable(table, base, symbols, amount)
		if err != nil {
			return domain.TimeSeriesResult{}, err
		}
		series[date] = converted
	}

	return domain.TimeSeriesResult{
		Amount:    amount,
		Base:      base,
		StartDate: start,
		EndDate:   end,
		Rates:     series,
	}, nil
}

// GetCurrencies returns code to display name for every known currency.
func (s *RatesService) GetCurrencies(ctx context.Context) (map[string]string, error) {
	currencies, err := s.repo.GetCurrencies(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list currencies: %w", err)
	}
	return currencies, nil
}

// GetProvidersInfo reports sync freshness and row counts per registered
// provider, in registration order.
func (s *RatesService) GetProvidersInfo(ctx context.Context) ([]domain.ProviderStatus, error) {
	all := s.registry.All()
	infos := make([]domain.ProviderStatus, 0, len(all))
	for _, p := range all {
		lastSync, err := s.repo.GetLastSync(ctx, p.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to get last sync for %s: %w", p.Name(), err)
		}
		count, err := s.repo.GetRatesCount(ctx, p.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to count rates for %s: %w", p.Name(), err)
		}
		infos = append(infos, domain.ProviderStatus{
			Name:        p.Name(),
			Description: p.Description(),
			LastSync:    lastSync,
			RatesCount:  count,
		})
	}
	return infos, nil
}

// convertTable runs the per-day response pipeline: insert the pivot at 1.0,
// rebase when a different base is requested, keep only the requested
// symbols, then scale by amount and round to six decimals.
func convertTable(stored map[string]float64, base string, symbols []string, amount float64) (map[string]float64, error) {
	table := make(map[string]float64, len(stored)+1)
	for code, rate := range stored {
		table[code] = rate
	}
	table[domain.InternalBase] = 1.0

	if base != domain.InternalBase {
		rebased, err := domain.RebaseRates(table, domain.InternalBase, base)
		if err != nil {
			return nil, err
		}
		table = rebased
	}

	if len(symbols) > 0 {
		wanted := make(map[string]struct{}, len(symbols))
		for _, symbol := range symbols {
			wanted[symbol] = struct{}{}
		}
		for code := range table {
			if _, ok := wanted[code]; !ok {
				delete(table, code)
			}
		}
	}

	for code, rate := range table {
		table[code] = domain.RoundRate(amount * rate)
	}
	return table, nil
}
