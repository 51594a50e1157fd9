package payments

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

type memoryRepo struct {
	payments []Payment
	nextID   int64
}

func (m *memoryRepo) CreatePayment(_ context.Context, pay Payment) (*Payment, error) {
	m.nextID++
	pay.ID = m.nextID
	m.payments = append(m.payments, pay)
	return &pay, nil
}

func (m *memoryRepo) GetPayment(_ context.Context, id int64) (*Payment, error) {
	for i := range m.payments {
		if m.payments[i].ID == id {
			return &m.payments[i], nil
		}
	}
	return nil, httpx.ErrNotFound
}

func (m *memoryRepo) ListPayments(_ context.Context, req ListPaymentsRequest) ([]Payment, error) {
	var out []Payment
	for _, p := range m.payments {
		if p.Archived == req.Archived {
			out = append(out, p)
		}
	}
	return out, nil
}

func TestRegisterPayment(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	paidAt := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	pay, err := svc.RegisterPayment(context.Background(), CreatePaymentInput{
		Reference:   "OR-1001",
		InvoiceID:   7,
		PatientID:   1,
		PatientName: "Miguel Torres",
		Amount:      1500,
		Method:      "cash",
		PaidAt:      paidAt,
	})
	require.NoError(t, err)
	require.Equal(t, "OR-1001", pay.Reference)
	require.Equal(t, StatusPosted, pay.Status)
	require.Equal(t, paidAt, pay.PaidAt)
}

func TestRegisterPaymentGeneratesReference(t *testing.T) {
	repo := &memoryRepo{}
	svc := NewService(repo)

	pay, err := svc.RegisterPayment(context.Background(), CreatePaymentInput{
		PatientID: 1,
		Amount:    200,
		Method:    "card",
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(pay.Reference, "PAY-"))
	require.Len(t, pay.Reference, len("PAY-")+8)
	require.False(t, pay.PaidAt.IsZero())
}

func TestRegisterPaymentValidation(t *testing.T) {
	svc := NewService(&memoryRepo{})

	_, err := svc.RegisterPayment(context.Background(), CreatePaymentInput{Amount: 0, Method: "cash"})
	require.ErrorIs(t, err, httpx.ErrValidation)

	_, err = svc.RegisterPayment(context.Background(), CreatePaymentInput{Amount: 100})
	require.ErrorIs(t, err, httpx.ErrValidation)
}
