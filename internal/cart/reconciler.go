// Package cart keeps the client's cart projection reconciled with the
// server-authoritative cart. Every mutation is a server call followed by a
// refresh of the projection from the response; nothing is computed locally
// except display totals.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"storefront-client/internal/api"
	"storefront-client/internal/model"
	"storefront-client/internal/session"
)

// Backend cart endpoints.
const (
	pathCart         = "/api/orders/cart/"
	pathCartItems    = "/api/orders/cart/items/"
	pathCartRemove   = "/api/orders/cart/items/remove/"
	pathCartMeta     = "/api/orders/cart/meta/"
	pathCartMerge    = "/api/orders/cart/merge/"
	pathCartReset    = "/api/orders/cart/reset_session/"
	pathCouponsCheck = "/api/coupons/validate/"
)

// Reconciler mediates all cart traffic. Safe for concurrent use to the
// extent the backend is; the intent dispatcher serializes mutations above
// this layer.
type Reconciler struct {
	api   *api.Client
	state *session.Store
	log   *slog.Logger
}

// NewReconciler creates a reconciler over the given client and state store.
func NewReconciler(client *api.Client, state *session.Store, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{api: client, state: state, log: logger}
}

// Fetch returns the server cart. Failures degrade to an empty cart instead
// of an error: an unreachable backend must never blank out the page, and
// the next successful fetch restores the real state.
func (r *Reconciler) Fetch(ctx context.Context) *model.Cart {
	var cart model.Cart
	if err := r.api.Get(ctx, pathCart, &cart); err != nil {
		r.log.Warn("cart fetch failed, rendering empty", "error", err)
		return model.EmptyCart()
	}
	if cart.Items == nil {
		cart.Items = []model.CartLine{}
	}
	return &cart
}

// AddLine adds quantity of an item to the cart. The backend add is
// relative: adding 2 to an existing line of 3 yields 5. Returns the
// refreshed cart.
func (r *Reconciler) AddLine(ctx context.Context, id, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return nil, model.NewValidationError("quantity", "must be positive")
	}
	body := map[string]int{"id": id, "quantity": quantity}
	if err := r.api.Post(ctx, pathCartItems, body, nil); err != nil {
		return nil, fmt.Errorf("adding line %d: %w", id, err)
	}
	return r.Fetch(ctx), nil
}

// RemoveLine removes a line entirely, whatever its quantity.
func (r *Reconciler) RemoveLine(ctx context.Context, id int) (*model.Cart, error) {
	body := map[string]int{"id": id}
	if err := r.api.Post(ctx, pathCartRemove, body, nil); err != nil {
		return nil, fmt.Errorf("removing line %d: %w", id, err)
	}
	return r.Fetch(ctx), nil
}

// SetQuantity sets a line to an absolute quantity. Zero or less removes the
// line. Because the backend add is relative, an absolute set is a remove
// followed by an add; the two are not atomic, and a crash between them
// loses the line rather than doubling it.
func (r *Reconciler) SetQuantity(ctx context.Context, id, quantity int) (*model.Cart, error) {
	if quantity <= 0 {
		return r.RemoveLine(ctx, id)
	}

	if _, err := r.RemoveLine(ctx, id); err != nil {
		return nil, err
	}
	return r.AddLine(ctx, id, quantity)
}

// Replace overwrites the server cart with the given lines in one call.
func (r *Reconciler) Replace(ctx context.Context, lines []model.CartLine) (*model.Cart, error) {
	body := map[string]any{"items": lines}
	if err := r.api.Post(ctx, pathCart, body, nil); err != nil {
		return nil, fmt.Errorf("replacing cart: %w", err)
	}
	return r.Fetch(ctx), nil
}

// ApplyDesired reconciles the server cart toward the desired lines with the
// minimum set of item mutations, applied remove → update → add.
func (r *Reconciler) ApplyDesired(ctx context.Context, desired []model.CartLine) (*model.Cart, error) {
	current := r.Fetch(ctx)
	diff := DiffLines(current.Items, desired)
	if diff.IsEmpty() {
		return current, nil
	}

	for _, id := range diff.ToRemove {
		if _, err := r.RemoveLine(ctx, id); err != nil {
			return nil, err
		}
	}
	for _, change := range diff.ToUpdate {
		if _, err := r.SetQuantity(ctx, change.ID, change.To); err != nil {
			return nil, err
		}
	}
	for _, line := range diff.ToAdd {
		if _, err := r.AddLine(ctx, line.ID, line.Quantity); err != nil {
			return nil, err
		}
	}
	return r.Fetch(ctx), nil
}

// SetMeta stores fulfillment metadata on the server cart and mirrors the
// selection into local state so it survives a login round-trip.
func (r *Reconciler) SetMeta(ctx context.Context, sel model.FulfillmentSelection) error {
	if err := sel.Validate(); err != nil {
		return err
	}

	body := model.CartMeta{ServiceType: string(sel.ServiceType), TableNumber: sel.TableNumber}
	if err := r.api.Post(ctx, pathCartMeta, body, nil); err != nil {
		return fmt.Errorf("setting cart meta: %w", err)
	}
	return r.state.SetFulfillment(&sel)
}

// couponResponse is the validation endpoint's answer.
type couponResponse struct {
	Valid   bool   `json:"valid"`
	Percent int    `json:"percent"`
	Message string `json:"message"`
}

// ApplyCoupon validates a code with the backend and caches the result
// locally. The percentage comes from the server; it is never guessed.
// A rejected code surfaces the server's message; rejection and request
// failure both clear any cached coupon.
func (r *Reconciler) ApplyCoupon(ctx context.Context, code string) (*model.AppliedCoupon, error) {
	if code == "" {
		return nil, model.NewValidationError("code", "coupon code is required")
	}

	var resp couponResponse
	path := pathCouponsCheck + "?code=" + url.QueryEscape(code)
	if err := r.api.Get(ctx, path, &resp); err != nil {
		// A coupon that cannot be revalidated must not keep discounting.
		if clearErr := r.state.SetCoupon(nil); clearErr != nil {
			r.log.Warn("clearing cached coupon failed", "error", clearErr)
		}
		return nil, fmt.Errorf("validating coupon: %w", err)
	}

	if !resp.Valid {
		if err := r.state.SetCoupon(nil); err != nil {
			return nil, err
		}
		msg := resp.Message
		if msg == "" {
			msg = "coupon is not valid"
		}
		return nil, model.NewValidationError("code", msg)
	}

	coupon := &model.AppliedCoupon{Code: code, PercentOff: resp.Percent}
	if err := r.state.SetCoupon(coupon); err != nil {
		return nil, err
	}
	r.log.Info("coupon applied", "code", code, "percent_off", resp.Percent)
	return coupon, nil
}

// ClearCoupon drops the cached coupon.
func (r *Reconciler) ClearCoupon() error {
	return r.state.SetCoupon(nil)
}

// Totals projects display totals for the given cart with the cached coupon.
func (r *Reconciler) Totals(c *model.Cart) Totals {
	return ComputeTotals(c, r.state.Coupon())
}

// MergeGuestCart folds the pre-login guest snapshot into the account cart.
// The snapshot is consumed first so a failed merge cannot replay it twice;
// the lines lost to a failed merge are still on the server's guest session.
func (r *Reconciler) MergeGuestCart(ctx context.Context) (*model.Cart, error) {
	lines, err := r.state.TakeGuestCart()
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return r.Fetch(ctx), nil
	}

	body := map[string]any{"items": lines}
	if err := r.api.Post(ctx, pathCartMerge, body, nil); err != nil {
		return nil, fmt.Errorf("merging guest cart: %w", err)
	}
	r.log.Info("guest cart merged", "lines", len(lines))
	return r.Fetch(ctx), nil
}

// SnapshotForLogin saves the current cart lines ahead of a login redirect.
func (r *Reconciler) SnapshotForLogin(ctx context.Context) error {
	current := r.Fetch(ctx)
	if current.IsEmpty() {
		return nil
	}
	return r.state.SnapshotGuestCart(current.Items)
}

// ResetSession abandons the server cart session and clears all local state.
func (r *Reconciler) ResetSession(ctx context.Context) error {
	if err := r.api.Post(ctx, pathCartReset, struct{}{}, nil); err != nil {
		return fmt.Errorf("resetting cart session: %w", err)
	}
	return r.state.Reset()
}
