package ledger

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const (
	// linkWindow bounds amount/date-proximity matching. The 24h value is an
	// empirical choice carried over from production behaviour.
	linkWindow = 24 * time.Hour
	// amountEpsilon is the tolerance for exact-amount matching.
	amountEpsilon = 0.01
)

var (
	invTokenPattern = regexp.MustCompile(`(?i)INV[-A-Z0-9]+`)
	digitRunPattern = regexp.MustCompile(`\d{6,}`)
)

// extractReferenceToken pulls an invoice-reference token out of a payment's
// number or description: an INV-prefixed code first, otherwise a bare run of
// at least six digits.
func extractReferenceToken(texts ...string) string {
	for _, text := range texts {
		if tok := invTokenPattern.FindString(text); tok != "" {
			return tok
		}
	}
	for _, text := range texts {
		if tok := digitRunPattern.FindString(text); tok != "" {
			return tok
		}
	}
	return ""
}

// matchInvoice finds the invoice a payment or pharmacy record belongs to.
// Token matching is attempted first; failing that, the nearest invoice by
// exact amount and timestamp proximity within the link window. A nil return
// means the link stays unresolved.
func matchInvoice(rec Record, invoices []Record) *Record {
	if tok := extractReferenceToken(rec.InvoiceRef, rec.Number); tok != "" {
		upper := strings.ToUpper(tok)
		for i := range invoices {
			if strings.Contains(strings.ToUpper(invoices[i].Number), upper) {
				return &invoices[i]
			}
		}
	}

	var best *Record
	var bestGap time.Duration
	for i := range invoices {
		inv := &invoices[i]
		if math.Abs(inv.Amount-rec.Amount) > amountEpsilon {
			continue
		}
		gap := rec.Timestamp.Sub(inv.Timestamp)
		if gap < 0 {
			gap = -gap
		}
		if gap > linkWindow {
			continue
		}
		if best == nil || gap < bestGap {
			best, bestGap = inv, gap
		}
	}
	return best
}

// ResolvePatientDisplayName returns the patient name to display for a
// record, consulting known invoices when the record itself carries none.
// Unresolvable links render as Unknown, never as a speculative match.
func ResolvePatientDisplayName(rec Record, invoices []Record) string {
	if rec.PatientName != "" {
		return rec.PatientName
	}
	if inv := matchInvoice(rec, invoices); inv != nil && inv.PatientName != "" {
		return inv.PatientName
	}
	return UnknownPatient
}

// enrichPatientLinks fills missing patient attribution on payment and
// pharmacy records from the invoices present in the same merged set.
func enrichPatientLinks(records []Record) {
	var invoices []Record
	for _, r := range records {
		if r.Kind == KindInvoice {
			invoices = append(invoices, r)
		}
	}
	for i := range records {
		r := &records[i]
		if r.Kind == KindInvoice || r.PatientName != "" {
			continue
		}
		if inv := matchInvoice(*r, invoices); inv != nil {
			if inv.PatientName != "" {
				r.PatientName = inv.PatientName
			}
			if r.PatientRef == "" {
				r.PatientRef = inv.PatientRef
			}
			if r.InvoiceRef == "" {
				r.InvoiceRef = inv.Number
			}
		}
	}
}
