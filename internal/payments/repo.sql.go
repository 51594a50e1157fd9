package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/ledger"
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

const paymentColumns = `id, reference, COALESCE(invoice_id, 0), patient_id, COALESCE(patient_name, ''), amount,
method, status, paid_at, is_archived, archived_at, COALESCE(archived_by, ''), created_at, updated_at`

func scanPayment(row pgx.Row) (*Payment, error) {
	var pay Payment
	err := row.Scan(&pay.ID, &pay.Reference, &pay.InvoiceID, &pay.PatientID, &pay.PatientName,
		&pay.Amount, &pay.Method, &pay.Status, &pay.PaidAt, &pay.Archived, &pay.ArchivedAt,
		&pay.ArchivedBy, &pay.CreatedAt, &pay.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &pay, nil
}

// CreatePayment inserts a new payment.
func (r *Repository) CreatePayment(ctx context.Context, pay Payment) (*Payment, error) {
	var invoiceID any
	if pay.InvoiceID != 0 {
		invoiceID = pay.InvoiceID
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO payments (reference, invoice_id, patient_id, patient_name, amount, method, status, paid_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING id`,
		pay.Reference, invoiceID, pay.PatientID, pay.PatientName, pay.Amount, pay.Method,
		pay.Status, pay.PaidAt, pay.CreatedAt, pay.UpdatedAt).Scan(&pay.ID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: payment reference %s already exists", httpx.ErrConflict, pay.Reference)
		}
		return nil, err
	}
	return &pay, nil
}

// GetPayment returns one payment by id.
func (r *Repository) GetPayment(ctx context.Context, id int64) (*Payment, error) {
	pay, err := scanPayment(r.pool.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: payment %d", httpx.ErrNotFound, id)
	}
	return pay, err
}

// ListPayments returns payments matching the filter, newest first.
func (r *Repository) ListPayments(ctx context.Context, req ListPaymentsRequest) ([]Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE is_archived = $1`
	args := []any{req.Archived}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	args = append(args, req.Limit)
	query += fmt.Sprintf(` ORDER BY paid_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var payments []Payment
	for rows.Next() {
		pay, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *pay)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return payments, nil
}

// LedgerSource adapts the payment table to the reconciler's Source port.
type LedgerSource struct {
	repo *Repository
}

// NewLedgerSource builds the reconciliation source over active payments.
func NewLedgerSource(repo *Repository) *LedgerSource {
	return &LedgerSource{repo: repo}
}

// Kind identifies this source.
func (s *LedgerSource) Kind() ledger.Kind { return ledger.KindPayment }

// Fetch lists active payments as raw reconciliation records.
func (s *LedgerSource) Fetch(ctx context.Context) ([]ledger.Raw, error) {
	payments, err := s.repo.ListPayments(ctx, ListPaymentsRequest{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("%w: payments: %v", httpx.ErrUpstream, err)
	}
	raws := make([]ledger.Raw, 0, len(payments))
	for _, pay := range payments {
		raw := ledger.Raw{
			"id":           pay.ID,
			"reference":    pay.Reference,
			"patient_name": pay.PatientName,
			"patient_id":   pay.PatientID,
			"amount":       pay.Amount,
			"status":       string(pay.Status),
			"paid_at":      pay.PaidAt,
		}
		if pay.InvoiceID != 0 {
			raw["invoice_id"] = pay.InvoiceID
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
