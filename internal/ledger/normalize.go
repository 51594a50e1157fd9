package ledger

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Ordered field-name fallback lists per record kind. Normalization applies
// them once; nothing downstream re-derives field variants.
var (
	invoiceFields = fieldMap{
		id:      []string{"id", "invoice_id", "invoiceId"},
		num:     []string{"invoice_number", "invoiceNumber", "number", "invoice_no"},
		patient: []string{"patient_name", "patientName", "patient"},
		ref:     []string{"patient_id", "patientId", "patient_ref"},
		amount:  []string{"total", "total_amount", "totalAmount", "amount", "grand_total"},
		status:  []string{"status", "invoice_status"},
		ts:      []string{"issued_at", "issuedAt", "date", "created_at", "createdAt"},
	}
	paymentFields = fieldMap{
		id:      []string{"id", "payment_id", "paymentId"},
		num:     []string{"reference", "payment_number", "paymentNumber", "number", "ref_no"},
		patient: []string{"patient_name", "patientName", "patient"},
		ref:     []string{"patient_id", "patientId", "patient_ref"},
		amount:  []string{"amount", "amount_paid", "amountPaid", "paid_amount", "total"},
		status:  []string{"status", "payment_status"},
		ts:      []string{"paid_at", "paidAt", "date", "created_at", "createdAt"},
		// description outranks invoice_id: a free-text INV token links by
		// exact match, a bare numeric id cannot.
		inv: []string{"invoice_number", "invoice_ref", "invoiceRef", "description", "invoice_id"},
	}
	pharmacyFields = fieldMap{
		id:      []string{"id", "transaction_id", "transactionId"},
		num:     []string{"transaction_number", "transactionNumber", "number"},
		patient: []string{"patient_name", "patientName", "patient"},
		ref:     []string{"patient_id", "patientId", "patient_ref"},
		amount:  []string{"total_amount", "totalAmount", "total", "amount"},
		status:  []string{"status"},
		ts:      []string{"date", "sold_at", "created_at", "createdAt"},
	}
)

type fieldMap struct {
	id, num, patient, ref, amount, status, ts, inv []string
}

// Normalize maps one raw source record onto the unified projection. Missing
// scalars default to zero values so no undefined value ever reaches
// arithmetic or comparison.
func Normalize(kind Kind, raw Raw) Record {
	fields := invoiceFields
	switch kind {
	case KindPayment:
		fields = paymentFields
	case KindPharmacy:
		fields = pharmacyFields
	}
	rec := Record{
		Kind:        kind,
		ID:          stringField(raw, fields.id),
		Number:      stringField(raw, fields.num),
		PatientName: stringField(raw, fields.patient),
		PatientRef:  stringField(raw, fields.ref),
		Amount:      floatField(raw, fields.amount),
		Status:      stringField(raw, fields.status),
		Timestamp:   timeField(raw, fields.ts),
	}
	if kind == KindPayment {
		rec.InvoiceRef = stringField(raw, fields.inv)
	}
	rec.Display = FormatAmount(rec.Amount)
	return rec
}

func stringField(raw Raw, keys []string) string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		case float64:
			return strconv.FormatFloat(s, 'f', -1, 64)
		case int:
			return strconv.Itoa(s)
		case int64:
			return strconv.FormatInt(s, 10)
		}
	}
	return ""
}

func floatField(raw Raw, keys []string) float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return n
		case float32:
			return float64(n)
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func timeField(raw Raw, keys []string) time.Time {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch t := v.(type) {
		case time.Time:
			return t
		case string:
			for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
				if parsed, err := time.Parse(layout, t); err == nil {
					return parsed
				}
			}
		case int64:
			return time.Unix(t, 0).UTC()
		case float64:
			return time.Unix(int64(t), 0).UTC()
		}
	}
	return time.Time{}
}

var amountPrinter = message.NewPrinter(language.English)

// FormatAmount renders a monetary value with digit grouping and two decimal
// places for display.
func FormatAmount(v float64) string {
	return amountPrinter.Sprint(number.Decimal(v,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
