// Package discounts resolves configured discount codes for the Calculator.
package discounts

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/billing"
)

// Repository reads named discounts from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GetByCode returns the discount configured under a code, or nil when the
// code is unknown.
func (r *Repository) GetByCode(ctx context.Context, code string) (*billing.NamedDiscount, error) {
	var d billing.NamedDiscount
	err := r.pool.QueryRow(ctx, `SELECT code, kind, value FROM discounts WHERE UPPER(code) = UPPER($1) AND is_active = TRUE`, code).
		Scan(&d.Code, &d.Kind, &d.Value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// RepositoryPort defines data access for discount resolution.
type RepositoryPort interface {
	GetByCode(ctx context.Context, code string) (*billing.NamedDiscount, error)
}

// Service resolves discount codes with a small in-process cache in front of
// the store. Unknown codes resolve to nil without error; the Calculator
// degrades them to a zero discount.
type Service struct {
	repo RepositoryPort

	mu    sync.RWMutex
	cache map[string]*billing.NamedDiscount
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo, cache: make(map[string]*billing.NamedDiscount)}
}

// Resolve looks up a discount code.
func (s *Service) Resolve(ctx context.Context, code string) (*billing.NamedDiscount, error) {
	key := strings.ToUpper(strings.TrimSpace(code))
	if key == "" {
		return nil, nil
	}

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	resolved, err := s.repo.GetByCode(ctx, key)
	if err != nil {
		return nil, err
	}
	if resolved != nil {
		s.mu.Lock()
		s.cache[key] = resolved
		s.mu.Unlock()
	}
	return resolved, nil
}

// Flush clears the resolution cache, typically after discount CRUD.
func (s *Service) Flush() {
	s.mu.Lock()
	s.cache = make(map[string]*billing.NamedDiscount)
	s.mu.Unlock()
}
