package services

import (
	"context"

	"github.com/ratewatch/currency-rates-service/internal/core/domain"
)

// SyncRunnerSvc defines operations that pull fresh rates from providers
// into storage.
type SyncRunnerSvc interface {
	// SyncProvider brings one provider up to date and returns how many
	// rows were written. Concurrent calls for the same provider coalesce
	// into a single run.
	SyncProvider(ctx context.Context, name string) (int, error)

	// SyncAll syncs every registered provider concurrently. One
	// provider's failure never aborts the others; outcomes come back in
	// registration order.
	SyncAll(ctx context.Context) []domain.SyncOutcome
}

// SyncSvcFacade combines all sync service interfaces.
type SyncSvcFacade interface {
	SyncRunnerSvc
}
