package cart

import (
	"testing"

	"storefront-client/internal/model"
)

func TestComputeTotals(t *testing.T) {
	cartWith := func(lines ...model.CartLine) *model.Cart {
		return &model.Cart{Items: lines}
	}

	tests := []struct {
		name   string
		cart   *model.Cart
		coupon *model.AppliedCoupon
		want   Totals
	}{
		{
			name: "no coupon",
			cart: cartWith(
				model.CartLine{ID: 1, Quantity: 2, UnitPrice: 1250},
				model.CartLine{ID: 2, Quantity: 1, UnitPrice: 500},
			),
			want: Totals{Subtotal: 3000, Discount: 0, Total: 3000},
		},
		{
			name: "ten percent off",
			cart: cartWith(
				model.CartLine{ID: 1, Quantity: 1, UnitPrice: 2000},
			),
			coupon: &model.AppliedCoupon{Code: "SAVE10", PercentOff: 10},
			want:   Totals{Subtotal: 2000, Discount: 200, Total: 1800},
		},
		{
			name:   "empty cart",
			cart:   model.EmptyCart(),
			coupon: &model.AppliedCoupon{Code: "SAVE10", PercentOff: 10},
			want:   Totals{},
		},
		{
			name: "overshooting discount clamps at zero",
			cart: cartWith(
				model.CartLine{ID: 1, Quantity: 1, UnitPrice: 100},
			),
			coupon: &model.AppliedCoupon{Code: "BROKEN", PercentOff: 150},
			want:   Totals{Subtotal: 100, Discount: 100, Total: 0},
		},
		{
			name: "discount rounds to nearest cent",
			cart: cartWith(
				model.CartLine{ID: 1, Quantity: 1, UnitPrice: 999},
			),
			coupon: &model.AppliedCoupon{Code: "THIRD", PercentOff: 33},
			want:   Totals{Subtotal: 999, Discount: 330, Total: 669},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.cart, tt.coupon)
			if got != tt.want {
				t.Errorf("ComputeTotals = %+v, want %+v", got, tt.want)
			}
		})
	}
}
