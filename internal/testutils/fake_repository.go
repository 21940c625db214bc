// Package testutils provides an in-memory repository fake with the same
// upsert and merge semantics as the pgsql implementation, for tests that
// need real storage behavior without a database.
package testutils

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
)

// rateKey identifies one stored rate row the way the unique index does.
type rateKey struct {
	date     time.Time
	base     string
	target   string
	provider string
}

type currencyKey struct {
	code     string
	provider string
}

type syncRow struct {
	provider string
	records  int
	status   string
	syncedAt time.Time
}

// FakeRepository implements ports.RepositoryProvider in memory. Safe for
// concurrent use.
type FakeRepository struct {
	mu         sync.Mutex
	rates      map[rateKey]float64
	currencies map[currencyKey]string
	syncLog    []syncRow
	clock      func() time.Time
}

// NewFakeRepository creates an empty fake store.
func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		rates:      make(map[rateKey]float64),
		currencies: make(map[currencyKey]string),
		clock:      time.Now,
	}
}

var _ portsrepo.RepositoryProvider = (*FakeRepository)(nil)

// SetClock overrides the timestamp source used for sync-log rows.
func (f *FakeRepository) SetClock(now func() time.Time) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clock = now
}

func (f *FakeRepository) StoreDailyRatesBatch(ctx context.Context, entries []domain.DailyRates) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	count := 0
	for _, day := range entries {
		for target, rate := range day.Rates {
			if target == day.BaseCurrency {
				continue
			}
			f.rates[rateKey{
				date:     domain.Day(day.Date),
				base:     day.BaseCurrency,
				target:   target,
				provider: day.Provider,
			}] = rate
			count++
		}
	}
	return count, nil
}

func (f *FakeRepository) GetLatestDate(ctx context.Context, provider string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var latest *time.Time
	for key := range f.rates {
		if key.base != domain.InternalBase {
			continue
		}
		if provider != "" && key.provider != provider {
			continue
		}
		if latest == nil || key.date.After(*latest) {
			date := key.date
			latest = &date
		}
	}
	return latest, nil
}

func (f *FakeRepository) GetRatesForDate(ctx context.Context, date time.Time, provider string) (map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.mergedTable(domain.Day(date), provider), nil
}

func (f *FakeRepository) GetRatesForRange(ctx context.Context, start, end time.Time, provider string) (map[time.Time]map[string]float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	start, end = domain.Day(start), domain.Day(end)
	result := make(map[time.Time]map[string]float64)
	for key := range f.rates {
		if key.base != domain.InternalBase || key.date.Before(start) || key.date.After(end) {
			continue
		}
		if provider != "" && key.provider != provider {
			continue
		}
		if _, ok := result[key.date]; !ok {
			result[key.date] = f.mergedTable(key.date, provider)
		}
	}
	return result, nil
}

// mergedTable folds every matching provider's rows for one date, visiting
// providers in lexicographic order so the later one wins collisions, same
// as the SQL ORDER BY provider read path. Callers must hold the lock.
func (f *FakeRepository) mergedTable(date time.Time, provider string) map[string]float64 {
	byProvider := make(map[string]map[string]float64)
	for key, rate := range f.rates {
		if key.base != domain.InternalBase || !key.date.Equal(date) {
			continue
		}
		if provider != "" && key.provider != provider {
			continue
		}
		if byProvider[key.provider] == nil {
			byProvider[key.provider] = make(map[string]float64)
		}
		byProvider[key.provider][key.target] = rate
	}

	names := make([]string, 0, len(byProvider))
	for name := range byProvider {
		names = append(names, name)
	}
	sort.Strings(names)

	merged := make(map[string]float64)
	for _, name := range names {
		for target, rate := range byProvider[name] {
			merged[target] = rate
		}
	}
	return merged
}

func (f *FakeRepository) GetRatesCount(ctx context.Context, provider string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var count int64
	for key := range f.rates {
		if provider != "" && key.provider != provider {
			continue
		}
		count++
	}
	return count, nil
}

func (f *FakeRepository) StoreCurrencies(ctx context.Context, provider string, currencies []domain.Currency) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, currency := range currencies {
		f.currencies[currencyKey{
			code:     strings.ToUpper(currency.Code),
			provider: provider,
		}] = currency.Name
	}
	return nil
}

func (f *FakeRepository) GetCurrencies(ctx context.Context, provider string) (map[string]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	codes := make(map[string]bool)
	for key := range f.rates {
		if provider != "" && key.provider != provider {
			continue
		}
		codes[key.target] = true
	}

	result := make(map[string]string, len(codes))
	for code := range codes {
		names := make([]string, 0, 1)
		for key, name := range f.currencies {
			if key.code == code {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			result[code] = code
			continue
		}
		sort.Strings(names)
		result[code] = names[len(names)-1]
	}
	return result, nil
}

func (f *FakeRepository) LogSync(ctx context.Context, provider string, recordsCount int, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.syncLog = append(f.syncLog, syncRow{
		provider: provider,
		records:  recordsCount,
		status:   status,
		syncedAt: f.clock(),
	})
	return nil
}

func (f *FakeRepository) GetLastSync(ctx context.Context, provider string) (*time.Time, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := len(f.syncLog) - 1; i >= 0; i-- {
		row := f.syncLog[i]
		if row.provider == provider && row.status == domain.SyncStatusSuccess {
			syncedAt := row.syncedAt
			return &syncedAt, nil
		}
	}
	return nil, nil
}

// SyncStatuses returns the logged statuses for one provider in append order.
func (f *FakeRepository) SyncStatuses(provider string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	statuses := make([]string, 0, len(f.syncLog))
	for _, row := range f.syncLog {
		if row.provider == provider {
			statuses = append(statuses, row.status)
		}
	}
	return statuses
}
