package repositories

// RepositoryProvider bundles all repository interfaces needed by services.
// This makes passing dependencies to the service container constructor cleaner.
type RepositoryProvider interface {
	RatesRepository
	CurrencyRepository
	SyncLogRepository
}
