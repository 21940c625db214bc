package pgsql

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
)

// PgxRatesRepository implements the ports.RatesRepository interface using pgxpool.
type PgxRatesRepository struct {
	BaseRepository
}

// newPgxRatesRepository creates a new repository for exchange rate data.
func newPgxRatesRepository(pool *pgxpool.Pool) portsrepo.RatesRepository {
	return &PgxRatesRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.RatesRepository = (*PgxRatesRepository)(nil)

const upsertRateSQL = `
	INSERT INTO exchange_rates (rate_date, base_currency, target_currency, rate, provider)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (rate_date, base_currency, target_currency, provider)
	DO UPDATE SET rate = EXCLUDED.rate;
`

// rateRow is the scan target shared by the rate read queries.
type rateRow struct {
	Date   time.Time
	Target string
	Rate   float64
}

// StoreDailyRatesBatch persists every target row of the given days in one
// transaction, upserting on the natural key. The pivot-to-pivot row is
// never stored, its rate is 1.0 by definition.
func (r *PgxRatesRepository) StoreDailyRatesBatch(ctx context.Context, entries []domain.DailyRates) (int, error) {
	batch := &pgx.Batch{}
	for _, daily := range entries {
		date := domain.Day(daily.Date)
		for target, rate := range daily.Rates {
			if target == daily.BaseCurrency {
				continue
			}
			batch.Queue(upsertRateSQL, date, daily.BaseCurrency, target, rate, daily.Provider)
		}
	}
	if batch.Len() == 0 {
		return 0, nil
	}

	tx, err := r.Begin(ctx)
	if err != nil {
		return 0, err
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		_ = r.Rollback(ctx, tx)
		return 0, fmt.Errorf("failed to store rates batch: %w", err)
	}
	if err := r.Commit(ctx, tx); err != nil {
		return 0, err
	}
	return batch.Len(), nil
}

// GetLatestDate returns the most recent stored rate date, nil when the
// table holds nothing for the selection.
func (r *PgxRatesRepository) GetLatestDate(ctx context.Context, provider string) (*time.Time, error) {
	query := `
		SELECT MAX(rate_date)
		FROM exchange_rates
		WHERE ($1 = '' OR provider = $1);
	`

	var latest *time.Time
	if err := r.Pool.QueryRow(ctx, query, provider).Scan(&latest); err != nil {
		return nil, fmt.Errorf("failed to get latest rate date: %w", err)
	}
	if latest == nil {
		return nil, nil
	}
	date := domain.Day(*latest)
	return &date, nil
}

// GetRatesForDate retrieves the pivot-based table for one date. With an
// empty provider the providers are merged; ordering by provider makes the
// lexicographically later one win a per-target collision.
func (r *PgxRatesRepository) GetRatesForDate(ctx context.Context, date time.Time, provider string) (map[string]float64, error) {
	query := `
		SELECT rate_date, target_currency, rate
		FROM exchange_rates
		WHERE rate_date = $1 AND base_currency = $2 AND ($3 = '' OR provider = $3)
		ORDER BY provider;
	`

	rows, err := r.Pool.Query(ctx, query, domain.Day(date), domain.InternalBase, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for date: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByPos[rateRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan rates for date: %w", err)
	}

	rates := make(map[string]float64, len(scanned))
	for _, row := range scanned {
		rates[row.Target] = row.Rate
	}
	return rates, nil
}

// GetRatesForRange retrieves per-date tables for every stored day within
// the inclusive window, merged across providers like GetRatesForDate.
func (r *PgxRatesRepository) GetRatesForRange(ctx context.Context, start, end time.Time, provider string) (map[time.Time]map[string]float64, error) {
	query := `
		SELECT rate_date, target_currency, rate
		FROM exchange_rates
		WHERE rate_date >= $1 AND rate_date <= $2 AND base_currency = $3 AND ($4 = '' OR provider = $4)
		ORDER BY rate_date, provider;
	`

	rows, err := r.Pool.Query(ctx, query, domain.Day(start), domain.Day(end), domain.InternalBase, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query rates for range: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByPos[rateRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan rates for range: %w", err)
	}

	results := make(map[time.Time]map[string]float64)
	for _, row := range scanned {
		date := domain.Day(row.Date)
		if results[date] == nil {
			results[date] = make(map[string]float64)
		}
		results[date][row.Target] = row.Rate
	}
	return results, nil
}

// GetRatesCount returns the number of stored rate rows.
func (r *PgxRatesRepository) GetRatesCount(ctx context.Context, provider string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM exchange_rates
		WHERE ($1 = '' OR provider = $1);
	`

	var count int64
	if err := r.Pool.QueryRow(ctx, query, provider).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count rates: %w", err)
	}
	return count, nil
}
