package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCalculate(t *testing.T) {
	testCases := []struct {
		name     string
		lines    []Line
		expected Totals
	}{
		{
			name:  "single item above free shipping threshold",
			lines: []Line{{UnitPrice: 1000, Quantity: 3}},
			expected: Totals{
				Subtotal:     3000,
				ShippingCost: 0,
				TaxAmount:    300,
				TotalAmount:  3300,
			},
		},
		{
			name:  "single item below free shipping threshold",
			lines: []Line{{UnitPrice: 500, Quantity: 2}},
			expected: Totals{
				Subtotal:     1000,
				ShippingCost: 250,
				TaxAmount:    100,
				TotalAmount:  1350,
			},
		},
		{
			name:  "subtotal exactly at threshold ships free",
			lines: []Line{{UnitPrice: 2500, Quantity: 1}},
			expected: Totals{
				Subtotal:     2500,
				ShippingCost: 0,
				TaxAmount:    250,
				TotalAmount:  2750,
			},
		},
		{
			name:  "one unit under the threshold still pays shipping",
			lines: []Line{{UnitPrice: 2499, Quantity: 1}},
			expected: Totals{
				Subtotal:     2499,
				ShippingCost: 250,
				TaxAmount:    250, // 249.9 rounds up
				TotalAmount:  2999,
			},
		},
		{
			name:  "tax rounds down below the half unit",
			lines: []Line{{UnitPrice: 1004, Quantity: 1}},
			expected: Totals{
				Subtotal:     1004,
				ShippingCost: 250,
				TaxAmount:    100, // 100.4 rounds down
				TotalAmount:  1354,
			},
		},
		{
			name:  "tax rounds up at the half unit",
			lines: []Line{{UnitPrice: 1005, Quantity: 1}},
			expected: Totals{
				Subtotal:     1005,
				ShippingCost: 250,
				TaxAmount:    101, // 100.5 rounds up
				TotalAmount:  1356,
			},
		},
		{
			name: "multiple lines accumulate",
			lines: []Line{
				{UnitPrice: 1200, Quantity: 2},
				{UnitPrice: 350, Quantity: 1},
			},
			expected: Totals{
				Subtotal:     2750,
				ShippingCost: 0,
				TaxAmount:    275,
				TotalAmount:  3025,
			},
		},
		{
			name: "unresolved line contributes nothing",
			lines: []Line{
				{UnitPrice: 500, Quantity: 2},
				{}, // cart row whose product/variant no longer exists
			},
			expected: Totals{
				Subtotal:     1000,
				ShippingCost: 250,
				TaxAmount:    100,
				TotalAmount:  1350,
			},
		},
		{
			name:  "empty cart",
			lines: nil,
			expected: Totals{
				Subtotal:     0,
				ShippingCost: 250,
				TaxAmount:    0,
				TotalAmount:  250,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(tc.lines)
			assert.Equal(t, tc.expected, got)

			// Composition invariant holds regardless of inputs.
			assert.Equal(t, got.Subtotal+got.ShippingCost+got.TaxAmount, got.TotalAmount)
		})
	}
}

func TestEffectiveUnitPrice(t *testing.T) {
	sale := int64(799)

	assert.Equal(t, int64(1000), EffectiveUnitPrice(1000, nil))
	assert.Equal(t, int64(799), EffectiveUnitPrice(1000, &sale))
}
