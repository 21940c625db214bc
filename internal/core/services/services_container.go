package services

import (
	"log/slog"

	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
	portssvc "github.com/ratewatch/currency-rates-service/internal/core/ports/services"
	"github.com/ratewatch/currency-rates-service/internal/providers"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(repos portsrepo.RepositoryProvider, registry *providers.Registry, logger *slog.Logger) *portssvc.ServiceContainer {
	return &portssvc.ServiceContainer{
		Rates: NewRatesService(repos, registry),
		Sync:  NewSyncService(repos, registry, logger),
	}
}

// Helper to check interface implementations at compile time
var (
	_ portssvc.RatesSvcFacade = (*RatesService)(nil)
	_ portssvc.SyncSvcFacade  = (*SyncService)(nil)
)
