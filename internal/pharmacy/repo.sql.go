package pharmacy

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/ledger"
	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// Repository reads pharmacy transactions. The table is populated by the
// pharmacy system; this side never writes to it.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ListTransactions returns transactions, optionally filtered by patient.
func (r *Repository) ListTransactions(ctx context.Context, patientID int64, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 1000
	}
	query := `SELECT id, COALESCE(number, ''), patient_id, COALESCE(patient_name, ''), items, total_amount, tax, status, sold_at
FROM pharmacy_transactions`
	args := []any{}
	if patientID != 0 {
		args = append(args, patientID)
		query += fmt.Sprintf(` WHERE patient_id = $%d`, len(args))
	}
	args = append(args, limit)
	query += fmt.Sprintf(` ORDER BY sold_at DESC LIMIT $%d`, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var txs []Transaction
	for rows.Next() {
		var tx Transaction
		var itemsJSON []byte
		if err := rows.Scan(&tx.ID, &tx.Number, &tx.PatientID, &tx.PatientName, &itemsJSON,
			&tx.TotalAmount, &tx.Tax, &tx.Status, &tx.SoldAt); err != nil {
			return nil, err
		}
		if len(itemsJSON) > 0 {
			if err := json.Unmarshal(itemsJSON, &tx.Items); err != nil {
				return nil, err
			}
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return txs, nil
}

// LedgerSource adapts pharmacy transactions to the reconciler's Source port.
type LedgerSource struct {
	repo *Repository
}

// NewLedgerSource builds the reconciliation source over pharmacy sales.
func NewLedgerSource(repo *Repository) *LedgerSource {
	return &LedgerSource{repo: repo}
}

// Kind identifies this source.
func (s *LedgerSource) Kind() ledger.Kind { return ledger.KindPharmacy }

// Fetch lists pharmacy transactions as raw reconciliation records.
func (s *LedgerSource) Fetch(ctx context.Context) ([]ledger.Raw, error) {
	txs, err := s.repo.ListTransactions(ctx, 0, 1000)
	if err != nil {
		return nil, fmt.Errorf("%w: pharmacy: %v", httpx.ErrUpstream, err)
	}
	raws := make([]ledger.Raw, 0, len(txs))
	for _, tx := range txs {
		raws = append(raws, ledger.Raw{
			"id":                 tx.ID,
			"transaction_number": tx.Number,
			"patient_name":       tx.PatientName,
			"patient_id":         tx.PatientID,
			"total_amount":       tx.TotalAmount,
			"status":             tx.Status,
			"date":               tx.SoldAt,
		})
	}
	return raws, nil
}
