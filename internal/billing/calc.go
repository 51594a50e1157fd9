// Package billing computes invoice totals: subtotal, discount, the
// taxable/exempt split and VAT. All functions are pure and never return an
// error; invalid numeric input degrades to zero-valued results, so callers
// must validate inputs before relying on totals for money movement.
package billing

import (
	"math"
	"strings"
)

// VATRate is the VAT rate applied to the taxable portion of an invoice.
const VATRate = 0.12

// taxableCategories are line categories always treated as dispensed medicine.
var taxableCategories = map[string]struct{}{
	"pharmacy":   {},
	"medicine":   {},
	"medication": {},
	"drugs":      {},
}

// medicineKeywords mark a line as taxable when its description mentions one.
var medicineKeywords = []string{
	"tablet", "capsule", "syrup", "injection", "antibiotic",
	"paracetamol", "ibuprofen", "amoxicillin", "vitamin", "medicine", "drug",
}

func sanitize(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// NormalizeItems returns a copy of items with Amount recomputed as
// quantity x unit rate. Incoming Amount values are never trusted.
func NormalizeItems(items []LineItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		it.Quantity = sanitize(it.Quantity)
		it.UnitRate = sanitize(it.UnitRate)
		it.Amount = it.Quantity * it.UnitRate
		out[i] = it
	}
	return out
}

// ComputeSubtotal sums the line amounts.
func ComputeSubtotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += sanitize(it.Amount)
	}
	return sum
}

// IsTaxable reports whether a line item is a dispensed medicine subject to
// VAT, either by category or by a keyword in its description.
func IsTaxable(item LineItem) bool {
	if _, ok := taxableCategories[strings.ToLower(strings.TrimSpace(item.Category))]; ok {
		return true
	}
	desc := strings.ToLower(item.Description)
	for _, kw := range medicineKeywords {
		if strings.Contains(desc, kw) {
			return true
		}
	}
	return false
}

// ComputeDiscount resolves a discount spec against a subtotal. Percentage
// discounts are intentionally not clamped at 100%; a configured over-100%
// value is trusted. Fixed discounts never exceed the subtotal. An unresolved
// code or an unknown kind yields zero.
func ComputeDiscount(subtotal float64, spec DiscountSpec) float64 {
	subtotal = sanitize(subtotal)
	switch spec.Kind {
	case DiscountPercentage:
		return subtotal * sanitize(spec.Value) / 100
	case DiscountFixed:
		return math.Min(sanitize(spec.Value), subtotal)
	case DiscountCode:
		if spec.Resolved == nil {
			return 0
		}
		return ComputeDiscount(subtotal, DiscountSpec{
			Kind:  spec.Resolved.Kind,
			Value: spec.Resolved.Value,
		})
	default:
		return 0
	}
}

// ComputeTax computes VAT over the taxable portion of the items. A flat
// discount is assumed to spread evenly across taxable and exempt amounts by
// their subtotal share, so only the taxable share of the discount reduces
// the VAT base.
func ComputeTax(items []LineItem, subtotal, discount float64) float64 {
	taxable := taxableAmount(items)
	if taxable == 0 || subtotal == 0 {
		return 0
	}
	taxableAfterDiscount := taxable - sanitize(discount)*(taxable/subtotal)
	return taxableAfterDiscount * VATRate
}

func taxableAmount(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		if IsTaxable(it) {
			sum += sanitize(it.Amount)
		}
	}
	return sum
}

// ComputeTotals runs the full pipeline over raw line items and a discount
// spec. Line amounts are recomputed before any aggregation.
func ComputeTotals(items []LineItem, spec DiscountSpec) Totals {
	normalized := NormalizeItems(items)
	subtotal := ComputeSubtotal(normalized)
	discount := ComputeDiscount(subtotal, spec)
	taxable := taxableAmount(normalized)
	tax := ComputeTax(normalized, subtotal, discount)
	return Totals{
		Subtotal:      subtotal,
		Discount:      discount,
		TaxableAmount: taxable,
		ExemptAmount:  subtotal - taxable,
		Tax:           tax,
		Total:         subtotal - discount + tax,
	}
}
