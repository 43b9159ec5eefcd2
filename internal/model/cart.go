// Package model defines data structures shared across the storefront client:
// the cart projection, coupons, fulfillment selections, orders, money
// handling, and the error taxonomy.
package model

import "encoding/json"

// CartLine is one line of the server cart. Identity is ID (a catalog item
// reference). A line with quantity 0 does not exist: the reconciler removes
// it instead of storing a zero.
type CartLine struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice int64  `json:"-"` // cents; decoded from the backend's decimal string
	Image     string `json:"image,omitempty"`
}

// cartLineWire matches the backend's JSON shape, where money fields are
// quantized decimal strings.
type cartLineWire struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	LineTotal string `json:"line_total,omitempty"`
	Image     string `json:"image,omitempty"`
}

// UnmarshalJSON decodes a backend cart line, converting unit_price to cents.
func (l *CartLine) UnmarshalJSON(data []byte) error {
	var w cartLineWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	l.ID = w.ID
	l.Name = w.Name
	l.Quantity = w.Quantity
	l.UnitPrice = ParseCents(w.UnitPrice)
	l.Image = w.Image
	return nil
}

// MarshalJSON encodes a cart line back to the backend's wire shape.
func (l CartLine) MarshalJSON() ([]byte, error) {
	return json.Marshal(cartLineWire{
		ID:        l.ID,
		Name:      l.Name,
		Quantity:  l.Quantity,
		UnitPrice: FormatCents(l.UnitPrice),
		LineTotal: FormatCents(l.UnitPrice * int64(l.Quantity)),
		Image:     l.Image,
	})
}

// LineTotal returns the line's extended price in cents.
func (l CartLine) LineTotal() int64 {
	return l.UnitPrice * int64(l.Quantity)
}

// CartMeta is the free-form cart metadata the backend stores alongside items.
type CartMeta struct {
	ServiceType string `json:"service_type,omitempty"`
	TableNumber int    `json:"table_number,omitempty"`
}

// Cart is the client's projection of the server-authoritative cart.
// It is read-mostly: surfaces render from it, but every mutation goes to the
// server and the projection is refreshed from the response.
type Cart struct {
	Items    []CartLine `json:"items"`
	Currency string     `json:"currency"`
	Meta     CartMeta   `json:"meta"`
}

// EmptyCart returns a zero-value cart safe to render. Cart fetches degrade to
// this on transient failure rather than propagating an error into rendering.
func EmptyCart() *Cart {
	return &Cart{Items: []CartLine{}, Currency: "usd"}
}

// Line returns the line with the given id, or nil.
func (c *Cart) Line(id int) *CartLine {
	for i := range c.Items {
		if c.Items[i].ID == id {
			return &c.Items[i]
		}
	}
	return nil
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// AppliedCoupon is a validated coupon cached client-side only. PercentOff is
// trusted from the validation response, never recomputed locally.
type AppliedCoupon struct {
	Code       string `json:"code"`
	PercentOff int    `json:"percent_off"`
}
