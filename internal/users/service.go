package users

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	CreateUser(ctx context.Context, user User) (*User, error)
	ListUsers(ctx context.Context, archived bool) ([]User, error)
}

// Service handles user business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// CreateUser hashes the password and persists the account.
func (s *Service) CreateUser(ctx context.Context, input CreateUserInput) (*User, error) {
	if input.Email == "" || input.Name == "" {
		return nil, fmt.Errorf("%w: email and name required", httpx.ErrValidation)
	}
	if len(input.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", httpx.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, User{
		Email:        input.Email,
		Name:         input.Name,
		Role:         input.Role,
		PasswordHash: string(hash),
	})
}

// ListUsers returns users filtered by archive state.
func (s *Service) ListUsers(ctx context.Context, archived bool) ([]User, error) {
	return s.repo.ListUsers(ctx, archived)
}
