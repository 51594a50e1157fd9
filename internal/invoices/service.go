package invoices

import (
	"context"
	"fmt"
	"time"

	"github.com/caresys-hbs/caresys/internal/billing"
	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// RepositoryPort defines data access methods for invoices.
type RepositoryPort interface {
	CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error)
	GetInvoice(ctx context.Context, id int64) (*Invoice, error)
	ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error)
	NextInvoiceNumber(ctx context.Context, year int) (string, error)
}

// DiscountResolver resolves a discount code to its configured discount.
// A nil result with nil error means the code is unknown; the Calculator
// then degrades the discount to zero.
type DiscountResolver interface {
	Resolve(ctx context.Context, code string) (*billing.NamedDiscount, error)
}

// Service handles invoice business logic.
type Service struct {
	repo      RepositoryPort
	discounts DiscountResolver
}

// NewService builds Service instance.
func NewService(repo RepositoryPort, discounts DiscountResolver) *Service {
	return &Service{repo: repo, discounts: discounts}
}

// CreateInvoice validates input, recomputes all monetary fields through the
// Calculator and persists the invoice. Line amounts from the caller are
// never trusted.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (*Invoice, error) {
	if input.PatientID == 0 {
		return nil, fmt.Errorf("%w: patient id required", httpx.ErrValidation)
	}
	if len(input.Items) == 0 {
		return nil, fmt.Errorf("%w: at least one line item required", httpx.ErrValidation)
	}

	items := make([]billing.LineItem, len(input.Items))
	for i, it := range input.Items {
		if it.Description == "" {
			return nil, fmt.Errorf("%w: item %d description required", httpx.ErrValidation, i+1)
		}
		if it.Quantity <= 0 {
			return nil, fmt.Errorf("%w: item %d quantity must be positive", httpx.ErrValidation, i+1)
		}
		items[i] = billing.LineItem{
			Description: it.Description,
			Category:    it.Category,
			Quantity:    it.Quantity,
			UnitRate:    it.UnitRate,
		}
	}

	spec := billing.DiscountSpec{
		Kind:  billing.DiscountKind(input.DiscountKind),
		Value: input.DiscountValue,
		Code:  input.DiscountCode,
	}
	if spec.Kind == "" {
		spec.Kind = billing.DiscountNone
	}
	if spec.Kind == billing.DiscountCode && s.discounts != nil && spec.Code != "" {
		resolved, err := s.discounts.Resolve(ctx, spec.Code)
		if err != nil {
			return nil, err
		}
		spec.Resolved = resolved
	}

	totals := billing.ComputeTotals(items, spec)

	now := time.Now().UTC()
	issuedAt := input.IssuedAt
	if issuedAt.IsZero() {
		issuedAt = now
	}
	dueAt := input.DueAt
	if dueAt.IsZero() {
		dueAt = issuedAt.AddDate(0, 0, 30)
	}

	number, err := s.repo.NextInvoiceNumber(ctx, issuedAt.Year())
	if err != nil {
		return nil, err
	}

	return s.repo.CreateInvoice(ctx, Invoice{
		Number:        number,
		PatientID:     input.PatientID,
		PatientName:   input.PatientName,
		Items:         billing.NormalizeItems(items),
		Subtotal:      totals.Subtotal,
		Discount:      totals.Discount,
		DiscountKind:  string(spec.Kind),
		DiscountValue: input.DiscountValue,
		DiscountCode:  input.DiscountCode,
		TaxableAmount: totals.TaxableAmount,
		ExemptAmount:  totals.ExemptAmount,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Status:        StatusUnpaid,
		IssuedAt:      issuedAt,
		DueAt:         dueAt,
		CreatedAt:     now,
		UpdatedAt:     now,
	})
}

// GetInvoice returns one invoice by id.
func (s *Service) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

// ListInvoices returns invoices matching the filter.
func (s *Service) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	if req.Limit <= 0 {
		req.Limit = 100
	}
	return s.repo.ListInvoices(ctx, req)
}
