package invoices

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/caresys-hbs/caresys/internal/billing"
	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

type memoryRepo struct {
	invoices map[int64]*Invoice
	nextID   int64
	counter  int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{invoices: make(map[int64]*Invoice)}
}

func (r *memoryRepo) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	r.nextID++
	inv.ID = r.nextID
	r.invoices[inv.ID] = &inv
	return &inv, nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, ok := r.invoices[id]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return inv, nil
}

func (r *memoryRepo) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	var out []Invoice
	for _, inv := range r.invoices {
		if inv.Archived != req.Archived {
			continue
		}
		if req.Status != "" && inv.Status != req.Status {
			continue
		}
		out = append(out, *inv)
	}
	return out, nil
}

func (r *memoryRepo) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	r.counter++
	return fmt.Sprintf("INV-%d-%03d", year, r.counter), nil
}

type stubResolver struct {
	known map[string]*billing.NamedDiscount
}

func (s *stubResolver) Resolve(ctx context.Context, code string) (*billing.NamedDiscount, error) {
	return s.known[code], nil
}

func TestCreateInvoiceComputesTotals(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		PatientID:     100,
		PatientName:   "Maria Santos",
		DiscountKind:  "percentage",
		DiscountValue: 20,
		Items: []CreateItemInput{
			{Description: "Consultation", Category: "Consultation", Quantity: 2, UnitRate: 1500},
			{Description: "Paracetamol", Category: "Pharmacy", Quantity: 10, UnitRate: 15},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 3150.0, inv.Subtotal)
	require.Equal(t, 630.0, inv.Discount)
	require.Equal(t, 150.0, inv.TaxableAmount)
	require.InDelta(t, 14.4, inv.Tax, 1e-9)
	require.InDelta(t, 2534.4, inv.Total, 1e-9)
	require.Equal(t, StatusUnpaid, inv.Status)
	require.Regexp(t, `^INV-\d{4}-\d{3}$`, inv.Number)
	// line amounts are recomputed, not taken from input
	require.Equal(t, 3000.0, inv.Items[0].Amount)
}

func TestCreateInvoiceResolvesDiscountCode(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := NewService(repo, &stubResolver{known: map[string]*billing.NamedDiscount{
		"SENIOR": {Code: "SENIOR", Kind: billing.DiscountPercentage, Value: 20},
	}})

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		PatientID:    100,
		DiscountKind: "code",
		DiscountCode: "SENIOR",
		Items:        []CreateItemInput{{Description: "Consultation", Quantity: 1, UnitRate: 1000}},
	})
	require.NoError(t, err)
	require.Equal(t, 200.0, inv.Discount)

	// unknown codes degrade silently to zero discount
	inv, err = svc.CreateInvoice(ctx, CreateInvoiceInput{
		PatientID:    100,
		DiscountKind: "code",
		DiscountCode: "NOPE",
		Items:        []CreateItemInput{{Description: "Consultation", Quantity: 1, UnitRate: 1000}},
	})
	require.NoError(t, err)
	require.Zero(t, inv.Discount)
}

func TestCreateInvoiceValidation(t *testing.T) {
	ctx := context.Background()
	svc := NewService(newMemoryRepo(), nil)

	_, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		Items: []CreateItemInput{{Description: "X", Quantity: 1, UnitRate: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{PatientID: 1})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{
		PatientID: 1,
		Items:     []CreateItemInput{{Description: "X", Quantity: 0, UnitRate: 1}},
	})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
