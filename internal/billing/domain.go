package billing

// DiscountKind enumerates supported discount specifications.
type DiscountKind string

const (
	DiscountNone       DiscountKind = "none"
	DiscountPercentage DiscountKind = "percentage"
	DiscountFixed      DiscountKind = "fixed"
	DiscountCode       DiscountKind = "code"
)

// LineItem is a single billable line on an invoice.
type LineItem struct {
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Quantity    float64 `json:"quantity"`
	UnitRate    float64 `json:"unit_rate"`
	Amount      float64 `json:"amount"`
}

// NamedDiscount is a configured discount resolved from a code.
type NamedDiscount struct {
	Code  string
	Kind  DiscountKind
	Value float64
}

// DiscountSpec describes how a discount should be applied to an invoice.
// For DiscountCode the caller resolves the code to a NamedDiscount before
// computing totals; an unresolved code yields a zero discount.
type DiscountSpec struct {
	Kind     DiscountKind
	Value    float64
	Code     string
	Resolved *NamedDiscount
}

// Totals is the full numeric breakdown for one invoice.
type Totals struct {
	Subtotal      float64 `json:"subtotal"`
	Discount      float64 `json:"discount"`
	TaxableAmount float64 `json:"taxable_amount"`
	ExemptAmount  float64 `json:"exempt_amount"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}
