package pgsql

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ratewatch/currency-rates-service/internal/core/domain"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
)

// PgxCurrencyRepository implements the ports.CurrencyRepository interface using pgxpool.
type PgxCurrencyRepository struct {
	BaseRepository
}

// newPgxCurrencyRepository creates a new repository for the currency name catalog.
func newPgxCurrencyRepository(pool *pgxpool.Pool) portsrepo.CurrencyRepository {
	return &PgxCurrencyRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.CurrencyRepository = (*PgxCurrencyRepository)(nil)

// StoreCurrencies upserts the display names one provider reports. Codes
// the provider no longer reports are left in place.
func (r *PgxCurrencyRepository) StoreCurrencies(ctx context.Context, provider string, currencies []domain.Currency) error {
	if len(currencies) == 0 {
		return nil
	}

	query := `
		INSERT INTO currencies (code, name, provider)
		VALUES ($1, $2, $3)
		ON CONFLICT (code, provider) DO UPDATE SET name = EXCLUDED.name;
	`

	batch := &pgx.Batch{}
	for _, currency := range currencies {
		batch.Queue(query, strings.ToUpper(currency.Code), currency.Name, provider)
	}
	if err := r.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to store currencies for %s: %w", provider, err)
	}
	return nil
}

// currencyRow is the scan target for the catalog read query.
type currencyRow struct {
	Code string
	Name string
}

// GetCurrencies returns code to display name for every currency that
// actually appears as a rate target, with the catalog name when one is
// known and the bare code otherwise.
func (r *PgxCurrencyRepository) GetCurrencies(ctx context.Context, provider string) (map[string]string, error) {
	query := `
		SELECT DISTINCT er.target_currency AS code,
		       COALESCE(c.name, er.target_currency) AS name
		FROM exchange_rates er
		LEFT JOIN currencies c ON c.code = er.target_currency
		WHERE ($1 = '' OR er.provider = $1)
		ORDER BY code, name;
	`

	rows, err := r.Pool.Query(ctx, query, provider)
	if err != nil {
		return nil, fmt.Errorf("failed to query currencies: %w", err)
	}
	scanned, err := pgx.CollectRows(rows, pgx.RowToStructByPos[currencyRow])
	if err != nil {
		return nil, fmt.Errorf("failed to scan currencies: %w", err)
	}

	currencies := make(map[string]string, len(scanned))
	for _, row := range scanned {
		currencies[row.Code] = row.Name
	}
	return currencies, nil
}
