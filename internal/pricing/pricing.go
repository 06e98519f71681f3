// Package pricing computes order totals from resolved cart lines.
//
// All amounts are integer minor currency units. The calculator is pure so
// the cart view, the checkout flow and the client-side store all agree on
// the same numbers.
package pricing

// Pricing constants.
const (
	// FlatShippingFee is charged unless the subtotal reaches the
	// free-shipping threshold.
	FlatShippingFee int64 = 250

	// FreeShippingThreshold is the subtotal at which shipping becomes free.
	FreeShippingThreshold int64 = 2500

	// TaxRatePercent is the tax rate applied to the subtotal.
	TaxRatePercent int64 = 10
)

// Line is one resolved cart line. A cart row that resolves to neither a
// product nor a variant must be passed as a zero Line; it then contributes
// nothing to any total.
type Line struct {
	UnitPrice int64
	Quantity  int
}

// Totals is the breakdown of an order's cost.
type Totals struct {
	Subtotal     int64 `json:"subtotal"`
	ShippingCost int64 `json:"shippingCost"`
	TaxAmount    int64 `json:"taxAmount"`
	TotalAmount  int64 `json:"totalAmount"`
}

// EffectiveUnitPrice picks the sale price when one is set, otherwise the
// base price.
func EffectiveUnitPrice(price int64, salePrice *int64) int64 {
	if salePrice != nil {
		return *salePrice
	}
	return price
}

// Calculate computes subtotal, shipping, tax and grand total for a set of
// lines. Tax is rounded half-up to the nearest integer unit.
func Calculate(lines []Line) Totals {
	var subtotal int64
	for _, l := range lines {
		subtotal += l.UnitPrice * int64(l.Quantity)
	}

	shipping := FlatShippingFee
	if subtotal >= FreeShippingThreshold {
		shipping = 0
	}

	// round(subtotal * rate/100) in integer arithmetic; subtotal is never
	// negative here.
	tax := (subtotal*TaxRatePercent + 50) / 100

	return Totals{
		Subtotal:     subtotal,
		ShippingCost: shipping,
		TaxAmount:    tax,
		TotalAmount:  subtotal + shipping + tax,
	}
}
