package invoices

import (
	"time"

	"github.com/caresys-hbs/caresys/internal/billing"
)

// Status enumerates invoice statuses.
type Status string

const (
	StatusUnpaid  Status = "unpaid"
	StatusPartial Status = "partial"
	StatusPaid    Status = "paid"
	StatusVoid    Status = "void"
)

// Invoice model. Monetary fields are always the Calculator's output; they
// are never taken verbatim from write input.
type Invoice struct {
	ID            int64              `json:"id"`
	Number        string             `json:"number"`
	PatientID     int64              `json:"patient_id"`
	PatientName   string             `json:"patient_name"`
	Items         []billing.LineItem `json:"items"`
	Subtotal      float64            `json:"subtotal"`
	Discount      float64            `json:"discount"`
	DiscountKind  string             `json:"discount_kind,omitempty"`
	DiscountValue float64            `json:"discount_value,omitempty"`
	DiscountCode  string             `json:"discount_code,omitempty"`
	TaxableAmount float64            `json:"taxable_amount"`
	ExemptAmount  float64            `json:"exempt_amount"`
	Tax           float64            `json:"tax"`
	Total         float64            `json:"total"`
	Status        Status             `json:"status"`
	IssuedAt      time.Time          `json:"issued_at"`
	DueAt         time.Time          `json:"due_at"`
	Archived      bool               `json:"archived"`
	ArchivedAt    *time.Time         `json:"archived_at,omitempty"`
	ArchivedBy    string             `json:"archived_by,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// CreateInvoiceInput for creating invoices.
type CreateInvoiceInput struct {
	PatientID     int64             `json:"patient_id" validate:"required"`
	PatientName   string            `json:"patient_name"`
	Items         []CreateItemInput `json:"items" validate:"required,min=1,dive"`
	DiscountKind  string            `json:"discount_kind" validate:"omitempty,oneof=none percentage fixed code"`
	DiscountValue float64           `json:"discount_value" validate:"gte=0"`
	DiscountCode  string            `json:"discount_code"`
	DueAt         time.Time         `json:"due_at"`
	IssuedAt      time.Time         `json:"issued_at"`
}

// CreateItemInput is one requested invoice line.
type CreateItemInput struct {
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity" validate:"gt=0"`
	UnitRate    float64 `json:"unit_rate" validate:"gte=0"`
}

// ListInvoicesRequest filters invoice listings.
type ListInvoicesRequest struct {
	Status    Status
	PatientID int64
	Archived  bool
	Limit     int
}
