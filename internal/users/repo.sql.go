package users

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
	"github.com/caresys-hbs/caresys/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// CreateUser inserts a new user.
func (r *Repository) CreateUser(ctx context.Context, user User) (*User, error) {
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	err := r.pool.QueryRow(ctx, `INSERT INTO users (email, name, role, password_hash, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		user.Email, user.Name, user.Role, user.PasswordHash, user.CreatedAt, user.UpdatedAt).Scan(&user.ID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: email %s already registered", httpx.ErrConflict, user.Email)
		}
		return nil, err
	}
	return &user, nil
}

// ListUsers returns users filtered by archive state.
func (r *Repository) ListUsers(ctx context.Context, archived bool) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, email, name, role, password_hash, is_archived, archived_at, COALESCE(archived_by, ''), created_at, updated_at
FROM users WHERE is_archived = $1 ORDER BY id`, archived)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []User
	for rows.Next() {
		var user User
		if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.Role, &user.PasswordHash,
			&user.Archived, &user.ArchivedAt, &user.ArchivedBy, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
