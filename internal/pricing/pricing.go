package pricing

// LineKind tags which cart variant a line came from.
type LineKind int

const (
	// KindAuthenticated lines carry a server-assigned row id.
	KindAuthenticated LineKind = iota
	// KindGuest lines are identified by product id only.
	KindGuest
)

// Line is a display/pricing view of one cart row, flattened from either the
// authenticated or the guest item shape.
type Line struct {
	Kind      LineKind
	ItemID    int
	ProductID int
	Quantity  int
	UnitPrice float64
	// Priced is false when the product reference was missing; such lines
	// contribute zero to the subtotal.
	Priced bool
}

// Promo is the pricing-relevant slice of a validated promo code.
type Promo struct {
	DiscountPercentage float64
	IsValid            bool
}

// Quote is a shipping/tax calculation snapshot. When present its total is
// authoritative; when absent shipping and tax are omitted, not estimated.
type Quote struct {
	ShippingAmount float64
	TaxAmount      float64
	Total          float64
}

// Totals is the full price breakdown for display.
type Totals struct {
	ItemCount      int     `json:"item_count"`
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discount_amount"`
	ShippingAmount float64 `json:"shipping_amount"`
	TaxAmount      float64 `json:"tax_amount"`
	Total          float64 `json:"total"`
	QuoteApplied   bool    `json:"quote_applied"`
}

// ItemCount sums quantities across all lines. Zero for an empty cart.
func ItemCount(lines []Line) int {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return count
}

// Subtotal sums price*quantity over priced lines. Lines with a missing
// product reference contribute zero.
func Subtotal(lines []Line) float64 {
	total := 0.0
	for _, l := range lines {
		if !l.Priced {
			continue
		}
		total += l.UnitPrice * float64(l.Quantity)
	}
	return total
}

// Discount yields the promo discount amount. An absent or invalid code
// contributes zero.
func Discount(subtotal float64, promo *Promo) float64 {
	if promo == nil || !promo.IsValid {
		return 0
	}
	return subtotal * promo.DiscountPercentage / 100
}

// Total is the displayed order total. With a quote its total is taken as-is;
// without one, shipping and tax are simply left out.
func Total(subtotal, discount float64, quote *Quote) float64 {
	if quote != nil {
		return quote.Total
	}
	return subtotal - discount
}

// Calculate derives the complete breakdown from cart lines, an optional
// promo code and an optional shipping/tax quote.
func Calculate(lines []Line, promo *Promo, quote *Quote) Totals {
	subtotal := Subtotal(lines)
	discount := Discount(subtotal, promo)
	t := Totals{
		ItemCount:      ItemCount(lines),
		Subtotal:       subtotal,
		DiscountAmount: discount,
		Total:          Total(subtotal, discount, quote),
	}
	if quote != nil {
		t.ShippingAmount = quote.ShippingAmount
		t.TaxAmount = quote.TaxAmount
		t.QuoteApplied = true
	}
	return t
}

// FreeShippingProgress reports progress toward the free-shipping threshold
// as a percentage, clamped at 100.
func FreeShippingProgress(subtotal, threshold float64) float64 {
	if threshold <= 0 {
		return 100
	}
	progress := subtotal / threshold * 100
	if progress > 100 {
		return 100
	}
	return progress
}

// AmountToFreeShipping is how much more the shopper must add to qualify,
// never negative.
func AmountToFreeShipping(subtotal, threshold float64) float64 {
	remaining := threshold - subtotal
	if remaining < 0 {
		return 0
	}
	return remaining
}
