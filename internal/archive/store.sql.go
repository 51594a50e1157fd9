package archive

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/shared"
)

// SQLStore implements Store against one archive-capable table. Every
// archivable table carries the same three columns: is_archived, archived_at
// and archived_by.
type SQLStore struct {
	pool   *pgxpool.Pool
	table  string
	entity EntityType
}

// NewSQLStore constructs a SQLStore for the given table. The table name is
// fixed at wiring time and never taken from request input.
func NewSQLStore(pool *pgxpool.Pool, table string, entity EntityType) *SQLStore {
	return &SQLStore{pool: pool, table: table, entity: entity}
}

// Get returns the archive snapshot of one row.
func (s *SQLStore) Get(ctx context.Context, id int64) (*Entity, error) {
	ent := Entity{ID: id, Type: s.entity}
	query := fmt.Sprintf(`SELECT is_archived, archived_at, COALESCE(archived_by, '') FROM %s WHERE id = $1`, s.table)
	err := s.pool.QueryRow(ctx, query, id).Scan(&ent.Archived, &ent.ArchivedAt, &ent.ArchivedBy)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ent, nil
}

// SetArchived stamps the archive metadata on one row.
func (s *SQLStore) SetArchived(ctx context.Context, id int64, at time.Time, by string) error {
	query := fmt.Sprintf(`UPDATE %s SET is_archived = TRUE, archived_at = $2, archived_by = $3 WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id, at, by)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ClearArchived removes the archive metadata from one row.
func (s *SQLStore) ClearArchived(ctx context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET is_archived = FALSE, archived_at = NULL, archived_by = NULL WHERE id = $1`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteIfArchived removes the row only while it is archived; the predicate
// keeps the permanent-delete guard atomic in storage.
func (s *SQLStore) DeleteIfArchived(ctx context.Context, id int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1 AND is_archived = TRUE`, s.table)
	tag, err := s.pool.Exec(ctx, query, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListIDs returns the ids currently in the requested archive state.
func (s *SQLStore) ListIDs(ctx context.Context, archived bool) ([]int64, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE is_archived = $1 ORDER BY id`, s.table)
	rows, err := s.pool.Query(ctx, query, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return ids, nil
}
