package payments

import "time"

// Status enumerates payment statuses.
type Status string

const (
	StatusPending Status = "pending"
	StatusPosted  Status = "posted"
	StatusVoid    Status = "void"
)

// Payment model.
type Payment struct {
	ID          int64      `json:"id"`
	Reference   string     `json:"reference"`
	InvoiceID   int64      `json:"invoice_id,omitempty"`
	PatientID   int64      `json:"patient_id"`
	PatientName string     `json:"patient_name"`
	Amount      float64    `json:"amount"`
	Method      string     `json:"method"`
	Status      Status     `json:"status"`
	PaidAt      time.Time  `json:"paid_at"`
	Archived    bool       `json:"archived"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
	ArchivedBy  string     `json:"archived_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreatePaymentInput for registering payments.
type CreatePaymentInput struct {
	Reference   string    `json:"reference"`
	InvoiceID   int64     `json:"invoice_id"`
	PatientID   int64     `json:"patient_id"`
	PatientName string    `json:"patient_name"`
	Amount      float64   `json:"amount" validate:"gt=0"`
	Method      string    `json:"method" validate:"required"`
	PaidAt      time.Time `json:"paid_at"`
}

// ListPaymentsRequest filters payment listings.
type ListPaymentsRequest struct {
	Status   Status
	Archived bool
	Limit    int
}
