package repositories

import (
	"context"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// CurrencyRepository defines operations on the currency name catalog.
type CurrencyRepository interface {
	// StoreCurrencies upserts the display names a provider reports.
	// Codes the provider stops reporting are kept, not deleted.
	StoreCurrencies(ctx context.Context, provider string, currencies []domain.Currency) error

	// GetCurrencies returns code to display name for every currency that
	// actually appears in the stored rates, falling back to the code when
	// no name is catalogued. An empty provider unions all providers.
	GetCurrencies(ctx context.Context, provider string) (map[string]string, error)
}
