package repositories

import (
	"context"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// RatesReader defines read operations for stored exchange rate data.
// An empty provider selects rows from every provider merged together.
type RatesReader interface {
	// GetLatestDate returns the most recent stored rate date, or nil when
	// nothing is stored yet.
	GetLatestDate(ctx context.Context, provider string) (*time.Time, error)

	// GetRatesForDate retrieves the pivot-based rate table for one date.
	// An empty result map means no data, not an error.
	GetRatesForDate(ctx context.Context, date time.Time, provider string) (map[string]float64, error)

	// GetRatesForRange retrieves per-date rate tables for all stored days
	// with start <= date <= end.
	GetRatesForRange(ctx context.Context, start, end time.Time, provider string) (map[time.Time]map[string]float64, error)

	// GetRatesCount returns the number of stored rate rows.
	GetRatesCount(ctx context.Context, provider string) (int64, error)
}

// RatesWriter defines write operations for exchange rate data.
type RatesWriter interface {
	// StoreDailyRatesBatch persists the given days in one transaction,
	// upserting on (date, base, target, provider), and returns the number
	// of rows written. Storing the same batch twice yields no duplicates.
	StoreDailyRatesBatch(ctx context.Context, entries []domain.DailyRates) (int, error)
}

// RatesRepository combines all exchange rate repository interfaces.
// This is a facade for clients that need access to all operations.
type RatesRepository interface {
	RatesReader
	RatesWriter
}
