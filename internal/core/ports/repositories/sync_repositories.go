package repositories

import (
	"context"
	"time"
)

// SyncLogRepository defines operations on the synchronization audit log.
type SyncLogRepository interface {
	// LogSync appends one audit row for a finished sync attempt.
	LogSync(ctx context.Context, provider string, records int, status string) error

	// GetLastSync returns when the provider last synced successfully, or
	// nil when it never has. Seeded and failed attempts do not count.
	GetLastSync(ctx context.Context, provider string) (*time.Time, error)
}
