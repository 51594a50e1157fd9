package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caresys-hbs/caresys/internal/platform/httpx"
)

// Repository provides PostgreSQL backed persistence.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const patientColumns = `id, name, birth_date, COALESCE(contact, ''), COALESCE(address, ''),
is_archived, archived_at, COALESCE(archived_by, ''), created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Contact, &p.Address,
		&p.Archived, &p.ArchivedAt, &p.ArchivedBy, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePatient inserts a new patient.
func (r *Repository) CreatePatient(ctx context.Context, input CreatePatientInput) (*Patient, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("%w: patient name required", httpx.ErrValidation)
	}
	now := time.Now().UTC()
	p := Patient{
		Name:      input.Name,
		BirthDate: input.BirthDate,
		Contact:   input.Contact,
		Address:   input.Address,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.pool.QueryRow(ctx, `INSERT INTO patients (name, birth_date, contact, address, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		p.Name, p.BirthDate, p.Contact, p.Address, p.CreatedAt, p.UpdatedAt).Scan(&p.ID)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPatient returns one patient by id.
func (r *Repository) GetPatient(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.pool.QueryRow(ctx, `SELECT `+patientColumns+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: patient %d", httpx.ErrNotFound, id)
	}
	return p, err
}

// ListPatients returns patients filtered by archive state, name ascending.
func (r *Repository) ListPatients(ctx context.Context, archived bool, limit int) ([]Patient, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `SELECT `+patientColumns+` FROM patients WHERE is_archived = $1 ORDER BY name LIMIT $2`, archived, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
