package ledger

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubSource struct {
	kind Kind
	raws []Raw
	err  error
}

func (s *stubSource) Kind() Kind { return s.kind }

func (s *stubSource) Fetch(ctx context.Context) ([]Raw, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.raws, nil
}

func newTestService(sources ...Source) *Service {
	return NewService(slog.New(slog.DiscardHandler), sources, time.Second, nil)
}

func ts(day int, hour int) time.Time {
	return time.Date(2025, 3, day, hour, 0, 0, 0, time.UTC)
}

func TestReconcileMergesAllSources(t *testing.T) {
	svc := newTestService(
		&stubSource{kind: KindInvoice, raws: []Raw{
			{"id": int64(1), "invoice_number": "INV-2025-001", "patient_name": "Maria Santos", "patient_id": "P-100", "total": 2534.4, "status": "unpaid", "issued_at": ts(10, 9)},
		}},
		&stubSource{kind: KindPayment, raws: []Raw{
			{"id": int64(11), "reference": "PAY-001", "patient_name": "Maria Santos", "amount": 1000.0, "status": "posted", "paid_at": ts(11, 10)},
		}},
		&stubSource{kind: KindPharmacy, raws: []Raw{
			{"id": int64(21), "transaction_number": "PH-77", "patient_name": "Leo Tan", "total_amount": 450.0, "status": "completed", "date": ts(12, 8)},
		}},
	)

	records, warnings, err := svc.Reconcile(context.Background(), ReconcileOptions{})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, records, 3)
	// time-descending
	require.Equal(t, "PH-77", records[0].Number)
	require.Equal(t, "PAY-001", records[1].Number)
	require.Equal(t, "INV-2025-001", records[2].Number)
	require.Equal(t, "2,534.40", records[2].Display)
}

func TestReconcileIdempotent(t *testing.T) {
	sources := []Source{
		&stubSource{kind: KindInvoice, raws: []Raw{
			{"id": int64(1), "invoice_number": "INV-001", "total": 100.0, "issued_at": ts(1, 1)},
			{"id": int64(2), "invoice_number": "INV-002", "total": 200.0, "issued_at": ts(1, 1)},
		}},
		&stubSource{kind: KindPayment, raws: []Raw{
			{"id": int64(3), "amount": 100.0, "paid_at": ts(2, 1)},
			{"id": int64(4), "amount": 50.0, "paid_at": ts(1, 2)},
		}},
	}
	svc := newTestService(sources...)

	first, _, err := svc.Reconcile(context.Background(), ReconcileOptions{})
	require.NoError(t, err)
	second, _, err := svc.Reconcile(context.Background(), ReconcileOptions{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestReconcileDeduplicatesPreferringLocal(t *testing.T) {
	svc := newTestService(&stubSource{kind: KindInvoice, raws: []Raw{
		{"id": int64(1), "invoice_number": "INV-001", "patient_name": "Remote Name", "total": 100.0, "status": "unpaid", "issued_at": ts(5, 5)},
	}})

	local := []Record{{
		Kind: KindInvoice, ID: "1", Number: "INV-001",
		PatientName: "Local Name", Amount: 100, Status: "paid", Timestamp: ts(5, 5),
	}}
	records, _, err := svc.Reconcile(context.Background(), ReconcileOptions{Local: local})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, "Local Name", records[0].PatientName)
	require.Equal(t, "paid", records[0].Status)
	require.True(t, records[0].Local)
}

func TestReconcileCompositeKeyFallback(t *testing.T) {
	svc := newTestService(
		&stubSource{kind: KindPharmacy, raws: []Raw{
			{"patient_id": "P-1", "total_amount": 75.0, "date": ts(3, 3)},
			{"patient_id": "P-1", "total_amount": 75.0, "date": ts(3, 9)}, // same day, same amount
		}},
	)
	records, _, err := svc.Reconcile(context.Background(), ReconcileOptions{})
	require.NoError(t, err)
	// no number, no id: composite kind:date:amount:patientRef collapses them
	require.Len(t, records, 1)
}

func TestReconcileIsolatesFailedSource(t *testing.T) {
	svc := newTestService(
		&stubSource{kind: KindInvoice, err: errors.New("connection refused")},
		&stubSource{kind: KindPayment, raws: []Raw{
			{"id": int64(9), "reference": "PAY-009", "amount": 10.0, "paid_at": ts(1, 1)},
		}},
	)
	records, warnings, err := svc.Reconcile(context.Background(), ReconcileOptions{})
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Len(t, warnings, 1)
	require.Equal(t, KindInvoice, warnings[0].Source)
	require.Contains(t, warnings[0].Message, "connection refused")
}

func TestReconcileSuppressedSkipsRemote(t *testing.T) {
	remote := &stubSource{kind: KindInvoice, raws: []Raw{
		{"id": int64(1), "invoice_number": "INV-001", "total": 100.0, "issued_at": ts(5, 5)},
	}}
	svc := newTestService(remote)

	local := []Record{{Kind: KindPayment, ID: "p1", Number: "PAY-1", PatientName: "Ana Reyes", Amount: 50, Timestamp: ts(4, 4)}}
	records, warnings, err := svc.Reconcile(context.Background(), ReconcileOptions{Local: local, Suppressed: true})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, records, 1)
	require.Equal(t, "PAY-1", records[0].Number)

	// empty local + suppressed stays empty
	records, _, err = svc.Reconcile(context.Background(), ReconcileOptions{Suppressed: true})
	require.NoError(t, err)
	require.Empty(t, records)
}

func TestReconcileDoesNotMutateInputs(t *testing.T) {
	local := []Record{{Kind: KindPayment, ID: "p1", Amount: 50, Timestamp: ts(4, 4)}}
	svc := newTestService()
	_, _, err := svc.Reconcile(context.Background(), ReconcileOptions{Local: local})
	require.NoError(t, err)
	require.False(t, local[0].Local, "caller slice must not be mutated")
	require.Empty(t, local[0].PatientName)
}

func TestLabelPayments(t *testing.T) {
	payments := []Record{
		{Kind: KindPayment, ID: "a", Timestamp: ts(3, 0)},
		{Kind: KindPayment, ID: "b", Number: "TRANS-004", Timestamp: ts(1, 0)},
		{Kind: KindPayment, ID: "c", Timestamp: ts(1, 0)},
		{Kind: KindPayment, ID: "d", Number: "OR-552", Timestamp: ts(2, 0)},
		{Kind: KindPayment, ID: "e", Timestamp: ts(1, 0)},
	}
	labeled := labelPayments(payments)

	byID := map[string]string{}
	for _, p := range labeled {
		byID[p.ID] = p.Number
	}
	// existing TRANS label preserved, numbering continues past it
	require.Equal(t, "TRANS-004", byID["b"])
	// other identifiers used as-is
	require.Equal(t, "OR-552", byID["d"])
	// chronological order, ties by input position
	require.Equal(t, "TRANS-005", byID["c"])
	require.Equal(t, "TRANS-006", byID["e"])
	require.Equal(t, "TRANS-007", byID["a"])
	// input untouched
	require.Empty(t, payments[0].Number)
}

func TestReconcileLabelsLocalPayments(t *testing.T) {
	svc := newTestService(&stubSource{kind: KindPayment, raws: []Raw{
		{"id": int64(1), "reference": "TRANS-002", "amount": 40.0, "paid_at": ts(1, 0)},
		{"id": int64(2), "amount": 60.0, "paid_at": ts(2, 0)},
	}})

	local := []Record{{Kind: KindPayment, ID: "p-local", Amount: 25, Timestamp: ts(1, 12)}}
	records, _, err := svc.Reconcile(context.Background(), ReconcileOptions{Local: local})
	require.NoError(t, err)
	require.Len(t, records, 3)

	byID := map[string]string{}
	for _, r := range records {
		byID[r.ID] = r.Number
	}
	require.Equal(t, "TRANS-002", byID["1"])
	// local and remote payments share one chronological sequence, so an
	// unpersisted local payment never renders with an empty number
	require.Equal(t, "TRANS-003", byID["p-local"])
	require.Equal(t, "TRANS-004", byID["2"])
}

func TestNormalizePaymentInvoiceRefPrefersDescription(t *testing.T) {
	rec := Normalize(KindPayment, Raw{
		"id":          int64(5),
		"amount":      500.0,
		"invoice_id":  int64(42),
		"description": "counter settlement for INV-2025-014",
		"paid_at":     ts(20, 0),
	})
	// a free-text INV token must not be shadowed by a bare numeric id
	require.Equal(t, "counter settlement for INV-2025-014", rec.InvoiceRef)
}

func TestNormalizeFieldFallbacks(t *testing.T) {
	rec := Normalize(KindInvoice, Raw{
		"invoiceNumber": "INV-7",
		"grand_total":   "1250.50",
		"patientName":   "Dana Lim",
		"createdAt":     "2025-03-10T08:00:00Z",
	})
	require.Equal(t, "INV-7", rec.Number)
	require.Equal(t, 1250.50, rec.Amount)
	require.Equal(t, "Dana Lim", rec.PatientName)
	require.Equal(t, ts(10, 8), rec.Timestamp)

	// missing scalars default to zero values, never undefined
	empty := Normalize(KindPayment, Raw{})
	require.Zero(t, empty.Amount)
	require.Empty(t, empty.Number)
	require.True(t, empty.Timestamp.IsZero())
}
