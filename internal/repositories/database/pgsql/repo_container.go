package pgsql

import (
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
)

// repositoryProvider bundles the pgsql repositories behind the single
// RepositoryProvider interface the services consume.
type repositoryProvider struct {
	portsrepo.RatesRepository
	portsrepo.CurrencyRepository
	portsrepo.SyncLogRepository
}

// NewRepositoryProvider wires every repository onto one shared pool.
func NewRepositoryProvider(dbPool *pgxpool.Pool) portsrepo.RepositoryProvider {
	return &repositoryProvider{
		RatesRepository:    newPgxRatesRepository(dbPool),
		CurrencyRepository: newPgxCurrencyRepository(dbPool),
		SyncLogRepository:  newPgxSyncLogRepository(dbPool),
	}
}
