package billing

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeSubtotalRecomputesAmounts(t *testing.T) {
	items := NormalizeItems([]LineItem{
		{Description: "Consultation", Category: "Consultation", Quantity: 2, UnitRate: 1500, Amount: 99999},
		{Description: "Paracetamol 500mg tablet", Category: "Pharmacy", Quantity: 10, UnitRate: 15},
	})
	require.Equal(t, 3000.0, items[0].Amount)
	require.Equal(t, 150.0, items[1].Amount)
	require.Equal(t, 3150.0, ComputeSubtotal(items))
}

func TestComputeSubtotalOrderIndependent(t *testing.T) {
	a := NormalizeItems([]LineItem{{Quantity: 3, UnitRate: 10}, {Quantity: 1, UnitRate: 250}, {Quantity: 2, UnitRate: 7.5}})
	b := NormalizeItems([]LineItem{{Quantity: 2, UnitRate: 7.5}, {Quantity: 3, UnitRate: 10}, {Quantity: 1, UnitRate: 250}})
	require.Equal(t, ComputeSubtotal(a), ComputeSubtotal(b))
}

func TestIsTaxable(t *testing.T) {
	require.True(t, IsTaxable(LineItem{Category: "Pharmacy"}))
	require.True(t, IsTaxable(LineItem{Category: "pharmacy "}))
	require.True(t, IsTaxable(LineItem{Category: "Lab", Description: "Amoxicillin Capsule 250mg"}))
	require.False(t, IsTaxable(LineItem{Category: "Consultation", Description: "Follow-up visit"}))
	require.False(t, IsTaxable(LineItem{}))
}

func TestComputeDiscount(t *testing.T) {
	require.Equal(t, 630.0, ComputeDiscount(3150, DiscountSpec{Kind: DiscountPercentage, Value: 20}))
	// over-100% percentages are trusted, not clamped
	require.Equal(t, 3780.0, ComputeDiscount(3150, DiscountSpec{Kind: DiscountPercentage, Value: 120}))
	// fixed discounts cap at the subtotal
	require.Equal(t, 100.0, ComputeDiscount(100, DiscountSpec{Kind: DiscountFixed, Value: 500}))
	require.Equal(t, 50.0, ComputeDiscount(100, DiscountSpec{Kind: DiscountFixed, Value: 50}))
	require.Equal(t, 0.0, ComputeDiscount(100, DiscountSpec{Kind: DiscountNone, Value: 50}))
	require.Equal(t, 0.0, ComputeDiscount(100, DiscountSpec{Kind: DiscountCode, Code: "UNKNOWN"}))
	require.Equal(t, 10.0, ComputeDiscount(100, DiscountSpec{
		Kind:     DiscountCode,
		Code:     "SENIOR",
		Resolved: &NamedDiscount{Code: "SENIOR", Kind: DiscountPercentage, Value: 10},
	}))
}

func TestComputeTotalsWorkedExample(t *testing.T) {
	items := []LineItem{
		{Description: "Consultation", Category: "Consultation", Quantity: 2, UnitRate: 1500},
		{Description: "Paracetamol", Category: "Pharmacy", Quantity: 10, UnitRate: 15},
	}
	got := ComputeTotals(items, DiscountSpec{Kind: DiscountPercentage, Value: 20})

	require.Equal(t, 3150.0, got.Subtotal)
	require.Equal(t, 630.0, got.Discount)
	require.Equal(t, 150.0, got.TaxableAmount)
	require.Equal(t, 3000.0, got.ExemptAmount)
	require.InDelta(t, 14.4, got.Tax, 1e-9)
	require.InDelta(t, 2534.4, got.Total, 1e-9)
}

func TestComputeTotalsNoTaxableItems(t *testing.T) {
	items := []LineItem{
		{Description: "Room charge", Category: "Room", Quantity: 3, UnitRate: 2000},
	}
	got := ComputeTotals(items, DiscountSpec{Kind: DiscountPercentage, Value: 15})
	require.Equal(t, 0.0, got.Tax)
	require.InDelta(t, 6000*(1-0.15), got.Total, 1e-9)
}

func TestComputeTotalsAllTaxable(t *testing.T) {
	items := []LineItem{
		{Description: "Ibuprofen tablet", Category: "Pharmacy", Quantity: 4, UnitRate: 25},
		{Description: "Cough syrup", Category: "Medicine", Quantity: 1, UnitRate: 150},
	}
	got := ComputeTotals(items, DiscountSpec{Kind: DiscountFixed, Value: 50})
	require.Equal(t, got.Subtotal, got.TaxableAmount)
	require.InDelta(t, (got.Subtotal-got.Discount)*VATRate, got.Tax, 1e-9)
}

func TestComputeTotalsDegradesInvalidInputToZero(t *testing.T) {
	items := []LineItem{
		{Quantity: math.NaN(), UnitRate: 100},
		{Quantity: 2, UnitRate: math.Inf(1)},
	}
	got := ComputeTotals(items, DiscountSpec{Kind: DiscountPercentage, Value: math.NaN()})
	require.Equal(t, Totals{}, got)
}

func TestComputeTotalsEmpty(t *testing.T) {
	require.Equal(t, Totals{}, ComputeTotals(nil, DiscountSpec{}))
}
