package cart

import "storefront-client/internal/model"

// Totals is the rendered price breakdown, in cents. It is a pure projection
// of the cart and the applied coupon; the backend recomputes everything at
// order time and its numbers win.
type Totals struct {
	Subtotal int64
	Discount int64
	Total    int64
}

// ComputeTotals projects the display totals. The discount is the coupon's
// percentage of the subtotal; the total never goes below zero even if a
// discount overshoots.
func ComputeTotals(c *model.Cart, coupon *model.AppliedCoupon) Totals {
	var subtotal int64
	for _, line := range c.Items {
		subtotal += line.LineTotal()
	}

	var discount int64
	if coupon != nil {
		discount = model.PercentOf(subtotal, coupon.PercentOff)
		if discount > subtotal {
			discount = subtotal
		}
	}

	return Totals{
		Subtotal: subtotal,
		Discount: discount,
		Total:    subtotal - discount,
	}
}
