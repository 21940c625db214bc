package services

import (
	"context"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// RatesReaderSvc defines the query operations over stored exchange rates.
// All rate tables it returns are rebased to the requested base currency,
// filtered to the requested symbols and scaled by the requested amount.
type RatesReaderSvc interface {
	// GetLatest returns rates for the most recent stored date.
	GetLatest(ctx context.Context, base string, symbols []string, amount float64) (domain.RatesResult, error)

	// GetRatesForDate returns rates for one specific date.
	GetRatesForDate(ctx context.Context, date time.Time, base string, symbols []string, amount float64) (domain.RatesResult, error)

	// GetTimeSeries returns per-day rates for every stored day within the
	// inclusive window.
	GetTimeSeries(ctx context.Context, start, end time.Time, base string, symbols []string, amount float64) (domain.TimeSeriesResult, error)

	// GetCurrencies returns code to display name for every known currency.
	GetCurrencies(ctx context.Context) (map[string]string, error)

	// GetProvidersInfo reports per-provider sync freshness and row counts.
	GetProvidersInfo(ctx context.Context) ([]domain.ProviderStatus, error)
}

// RatesSvcFacade combines all rate query service interfaces.
type RatesSvcFacade interface {
	RatesReaderSvc
}
