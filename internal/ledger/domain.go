package ledger

import (
	"fmt"
	"time"
)

// Kind identifies the origin of a ledger record.
type Kind string

const (
	KindInvoice  Kind = "invoice"
	KindPayment  Kind = "payment"
	KindPharmacy Kind = "pharmacy"
)

// UnknownPatient is rendered when best-effort patient linking fails. The
// reconciler never guesses past its matching heuristics.
const UnknownPatient = "Unknown"

// Record is the unified, ephemeral projection of one financial event. It is
// recomputed on every reconciliation pass and never persisted.
type Record struct {
	Kind        Kind      `json:"kind"`
	ID          string    `json:"id"`
	Number      string    `json:"number"`
	PatientName string    `json:"patient_name"`
	PatientRef  string    `json:"patient_ref"`
	Amount      float64   `json:"amount"`
	Display     string    `json:"display_amount"`
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	InvoiceRef  string    `json:"invoice_ref,omitempty"`
	Local       bool      `json:"local,omitempty"`
}

// Raw is an unnormalized source record. Independently-built sources expose
// the same value under differing legacy field names, so all reads go through
// the ordered fallback accessors in normalize.go.
type Raw map[string]any

// Warning reports a non-blocking reconciliation problem, typically a source
// fetch failure that was isolated to an empty contribution.
type Warning struct {
	Source  Kind   `json:"source"`
	Message string `json:"message"`
}

// dedupeKey resolves the merge identity of a record: display number first,
// then id, then a composite of kind, date, amount and patient reference.
func dedupeKey(r Record) string {
	if r.Number != "" {
		return "num:" + r.Number
	}
	if r.ID != "" {
		return "id:" + r.ID
	}
	return fmt.Sprintf("cmp:%s:%s:%.2f:%s", r.Kind, r.Timestamp.Format("2006-01-02"), r.Amount, r.PatientRef)
}
