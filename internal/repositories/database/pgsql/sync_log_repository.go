package pgsql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	portsrepo "github.com/ratewatch/currency-rates-service/internal/core/ports/repositories"
)

// PgxSyncLogRepository implements the ports.SyncLogRepository interface using pgxpool.
type PgxSyncLogRepository struct {
	BaseRepository
}

// newPgxSyncLogRepository creates a new repository for the sync audit log.
func newPgxSyncLogRepository(pool *pgxpool.Pool) portsrepo.SyncLogRepository {
	return &PgxSyncLogRepository{
		BaseRepository: BaseRepository{Pool: pool},
	}
}

// Ensure implementation matches interface
var _ portsrepo.SyncLogRepository = (*PgxSyncLogRepository)(nil)

// LogSync appends one audit row for a finished sync attempt.
func (r *PgxSyncLogRepository) LogSync(ctx context.Context, provider string, records int, status string) error {
	query := `
		INSERT INTO sync_log (provider, records_count, status)
		VALUES ($1, $2, $3);
	`

	if _, err := r.Pool.Exec(ctx, query, provider, records, status); err != nil {
		return fmt.Errorf("failed to log sync for %s: %w", provider, err)
	}
	return nil
}

// GetLastSync returns when the provider last synced with status success,
// nil when it never has.
func (r *PgxSyncLogRepository) GetLastSync(ctx context.Context, provider string) (*time.Time, error) {
	query := `
		SELECT synced_at
		FROM sync_log
		WHERE provider = $1 AND status = 'success'
		ORDER BY synced_at DESC
		LIMIT 1;
	`

	var syncedAt time.Time
	err := r.Pool.QueryRow(ctx, query, provider).Scan(&syncedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last sync for %s: %w", provider, err)
	}
	return &syncedAt, nil
}
