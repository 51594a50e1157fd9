package payments

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// RepositoryPort defines data access methods for payments.
type RepositoryPort interface {
	CreatePayment(ctx context.Context, pay Payment) (*Payment, error)
	GetPayment(ctx context.Context, id int64) (*Payment, error)
	ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, error)
}

// Service handles payment business logic.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// RegisterPayment validates and persists a payment. A payment without a
// caller-supplied reference gets a uuid-derived one; the ledger reconciler
// later replaces unreadable references with sequential TRANS labels for
// display.
func (s *Service) RegisterPayment(ctx context.Context, input CreatePaymentInput) (*Payment, error) {
	if input.Amount <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", httpx.ErrValidation)
	}
	if input.Method == "" {
		return nil, fmt.Errorf("%w: payment method required", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	paidAt := input.PaidAt
	if paidAt.IsZero() {
		paidAt = now
	}
	reference := input.Reference
	if reference == "" {
		reference = "PAY-" + uuid.NewString()[:8]
	}
	return s.repo.CreatePayment(ctx, Payment{
		Reference:   reference,
		InvoiceID:   input.InvoiceID,
		PatientID:   input.PatientID,
		PatientName: input.PatientName,
		Amount:      input.Amount,
		Method:      input.Method,
		Status:      StatusPosted,
		PaidAt:      paidAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

// GetPayment returns one payment by id.
func (s *Service) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	return s.repo.GetPayment(ctx, id)
}

// ListPayments returns payments matching the filter.
func (s *Service) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.ListPayments(ctx, req)
}
