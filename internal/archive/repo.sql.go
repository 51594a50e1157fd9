package archive

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository persists the suppression flag in a single settings row.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

// NewSettingsRepository constructs a SettingsRepository.
func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

// SuppressionFlag reads the persisted flag. A missing row reads as false.
func (r *SettingsRepository) SuppressionFlag(ctx context.Context) (bool, error) {
	var suppressed bool
	err := r.pool.QueryRow(ctx, `SELECT suppress_remote_merge FROM billing_settings WHERE id = 1`).Scan(&suppressed)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return suppressed, nil
}

// SetSuppressionFlag upserts the persisted flag.
func (r *SettingsRepository) SetSuppressionFlag(ctx context.Context, suppressed bool) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO billing_settings (id, suppress_remote_merge) VALUES (1, $1)
ON CONFLICT (id) DO UPDATE SET suppress_remote_merge = EXCLUDED.suppress_remote_merge`, suppressed)
	return err
}
