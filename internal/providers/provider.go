// Package providers contains the upstream rate-source adapters. Every
// adapter triangulates its native quotes into the internal pivot before
// returning, so callers never see a native-base table.
package providers

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ratewatch/currency-rates-service/internal/apperrors"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// Provider is the capability contract every rate source implements.
type Provider interface {
	// Name returns the stable lowercase identifier, e.g. "ecb".
	Name() string

	// Description returns a short human-readable summary of the source.
	Description() string

	// SupportedCurrencies lists the currencies the source can quote.
	SupportedCurrencies(ctx context.Context) ([]domain.Currency, error)

	// FetchLatest returns the most recent published day.
	FetchLatest(ctx context.Context) (domain.DailyRates, error)

	// FetchDate returns rates for exactly one date. A date the source has
	// no record for fails with ErrNoData, distinct from a transport or
	// parse failure.
	FetchDate(ctx context.Context, date time.Time) (domain.DailyRates, error)

	// FetchRange returns all available days with start <= date <= end.
	// Missing days are omitted, not errored; gap recovery is the
	// gap-filler's job.
	FetchRange(ctx context.Context, start, end time.Time) ([]domain.DailyRates, error)

	// FetchFullHistory returns a best-effort complete backfill from the
	// source's earliest known date to today.
	FetchFullHistory(ctx context.Context) ([]domain.DailyRates, error)
}

// FetchRangeByDay is the fallback range implementation for adapters without
// a native batch endpoint: one FetchDate call per day, so O(days) remote
// calls. A day that fails is logged and omitted, never fatal.
func FetchRangeByDay(ctx context.Context, p Provider, start, end time.Time, logger *slog.Logger) ([]domain.DailyRates, error) {
	var results []domain.DailyRates
	for current := domain.Day(start); !current.After(domain.Day(end)); current = current.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		day, err := p.FetchDate(ctx, current)
		if err != nil {
			logger.Warn("skipping day in range fetch",
				slog.String("provider", p.Name()),
				slog.String("date", domain.FormatDate(current)),
				slog.String("error", err.Error()))
			continue
		}
		results = append(results, day)
	}
	return results, nil
}

// fetchBody performs one upstream GET with the shared client and returns
// the raw payload. Any network failure, non-2xx status or short read is a
// transport failure.
func fetchBody(ctx context.Context, client *http.Client, url, source string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, source, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned status %d", apperrors.ErrTransport, source, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperrors.ErrTransport, source, err)
	}
	return body, nil
}
