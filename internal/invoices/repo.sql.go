package invoices

import (
	"context"
	"encoding/json"
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

const invoiceColumns = `id, number, patient_id, COALESCE(patient_name, ''), items, subtotal, discount,
COALESCE(discount_kind, ''), discount_value, COALESCE(discount_code, ''), taxable_amount, exempt_amount,
tax, total, status, issued_at, due_at, is_archived, archived_at, COALESCE(archived_by, ''), created_at, updated_at`

func scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var itemsJSON []byte
	err := row.Scan(&inv.ID, &inv.Number, &inv.PatientID, &inv.PatientName, &itemsJSON, &inv.Subtotal,
		&inv.Discount, &inv.DiscountKind, &inv.DiscountValue, &inv.DiscountCode, &inv.TaxableAmount,
		&inv.ExemptAmount, &inv.Tax, &inv.Total, &inv.Status, &inv.IssuedAt, &inv.DueAt,
		&inv.Archived, &inv.ArchivedAt, &inv.ArchivedBy, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &inv.Items); err != nil {
			return nil, err
		}
	}
	return &inv, nil
}

// CreateInvoice inserts a new invoice.
func (r *Repository) CreateInvoice(ctx context.Context, inv Invoice) (*Invoice, error) {
	itemsJSON, err := json.Marshal(inv.Items)
	if err != nil {
		return nil, err
	}
	err = r.pool.QueryRow(ctx, `INSERT INTO invoices (number, patient_id, patient_name, items, subtotal, discount,
discount_kind, discount_value, discount_code, taxable_amount, exempt_amount, tax, total, status, issued_at, due_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18) RETURNING id`,
		inv.Number, inv.PatientID, inv.PatientName, itemsJSON, inv.Subtotal, inv.Discount,
		inv.DiscountKind, inv.DiscountValue, inv.DiscountCode, inv.TaxableAmount, inv.ExemptAmount,
		inv.Tax, inv.Total, inv.Status, inv.IssuedAt, inv.DueAt, inv.CreatedAt, inv.UpdatedAt).Scan(&inv.ID)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return nil, fmt.Errorf("%w: invoice number %s already exists", httpx.ErrConflict, inv.Number)
		}
		return nil, err
	}
	return &inv, nil
}

// GetInvoice returns one invoice by id.
func (r *Repository) GetInvoice(ctx context.Context, id int64) (*Invoice, error) {
	inv, err := scanInvoice(r.pool.QueryRow(ctx, `SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: invoice %d", httpx.ErrNotFound, id)
	}
	return inv, err
}

// ListInvoices returns invoices matching the filter, newest first.
func (r *Repository) ListInvoices(ctx context.Context, req ListInvoicesRequest) ([]Invoice, error) {
	query := `SELECT ` + invoiceColumns + ` FROM invoices WHERE is_archived = $1`
	args := []any{req.Archived}
	if req.Status != "" {
		args = append(args, req.Status)
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if req.PatientID != 0 {
		args = append(args, req.PatientID)
		query += fmt.Sprintf(` AND patient_id = $%d`, len(args))
	}
	args = append(args, req.Limit)
	query += fmt.Sprintf(` ORDER BY issued_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invoices []Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, err
		}
		invoices = append(invoices, *inv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return invoices, nil
}

// NextInvoiceNumber allocates the next INV-YYYY-NNN display number.
func (r *Repository) NextInvoiceNumber(ctx context.Context, year int) (string, error) {
	var seq int64
	err := r.pool.QueryRow(ctx, `SELECT nextval('invoice_number_seq')`).Scan(&seq)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("INV-%d-%03d", year, seq), nil
}

// LedgerSource adapts the invoice table to the reconciler's Source port.
type LedgerSource struct {
	repo *Repository
}

// NewLedgerSource builds the reconciliation source over active invoices.
func NewLedgerSource(repo *Repository) *LedgerSource {
	return &LedgerSource{repo: repo}
}

// Kind identifies this source.
func (s *LedgerSource) Kind() ledger.Kind { return ledger.KindInvoice }

// Fetch lists active invoices as raw reconciliation records.
func (s *LedgerSource) Fetch(ctx context.Context) ([]ledger.Raw, error) {
	invoices, err := s.repo.ListInvoices(ctx, ListInvoicesRequest{Limit: 1000})
	if err != nil {
		return nil, fmt.Errorf("%w: invoices: %v", httpx.ErrUpstream, err)
	}
	raws := make([]ledger.Raw, 0, len(invoices))
	for _, inv := range invoices {
		raws = append(raws, ledger.Raw{
			"id":             inv.ID,
			"invoice_number": inv.Number,
			"patient_name":   inv.PatientName,
			"patient_id":     inv.PatientID,
			"total":          inv.Total,
			"status":         string(inv.Status),
			"issued_at":      inv.IssuedAt,
		})
	}
	return raws, nil
}
