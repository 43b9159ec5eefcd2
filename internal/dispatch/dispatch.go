// Package dispatch is the single entry point for user intents. Every
// surface (REST, MCP, CLI) funnels through here, which is what serializes
// cart mutations: one intent runs at a time, so a double-tapped button
// becomes two sequential server round-trips instead of a race.
package dispatch

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/checkout"
	"storefront-client/internal/model"
	"storefront-client/internal/session"
)

// CartView is the render-ready cart: the server projection plus display
// totals and the applied coupon.
type CartView struct {
	Cart     *model.Cart          `json:"cart"`
	Coupon   *model.AppliedCoupon `json:"coupon,omitempty"`
	Subtotal string               `json:"subtotal"`
	Discount string               `json:"discount"`
	Total    string               `json:"total"`
}

// Dispatcher owns the intent mutex and the assembled client stack.
type Dispatcher struct {
	mu sync.Mutex

	api   *api.Client
	cart  *cart.Reconciler
	orch  *checkout.Orchestrator
	state *session.Store
	log   *slog.Logger
}

// New assembles a dispatcher.
func New(client *api.Client, rec *cart.Reconciler, orch *checkout.Orchestrator, state *session.Store, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{api: client, cart: rec, orch: orch, state: state, log: logger}
}

// Intent argument types.

type AddItemArgs struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

type RemoveItemArgs struct {
	ID int `json:"id"`
}

type SetQuantityArgs struct {
	ID       int `json:"id"`
	Quantity int `json:"quantity"`
}

type ReplaceCartArgs struct {
	Items []model.CartLine `json:"items"`
}

type FulfillmentArgs struct {
	ServiceType string `json:"service_type"`
	TableNumber int    `json:"table_number,omitempty"`
}

type CouponArgs struct {
	Code string `json:"code"`
}

type LoginArgs struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterArgs struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GetCart returns the current cart view without mutating anything.
func (d *Dispatcher) GetCart(ctx context.Context) *CartView {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view(d.cart.Fetch(ctx))
}

// AddItem adds quantity of an item (relative).
func (d *Dispatcher) AddItem(ctx context.Context, args AddItemArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.cart.AddLine(ctx, args.ID, args.Quantity)
	if err != nil {
		return nil, err
	}
	return d.view(c), nil
}

// RemoveItem removes a line entirely.
func (d *Dispatcher) RemoveItem(ctx context.Context, args RemoveItemArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.cart.RemoveLine(ctx, args.ID)
	if err != nil {
		return nil, err
	}
	return d.view(c), nil
}

// SetQuantity sets a line to an absolute quantity; zero removes it.
func (d *Dispatcher) SetQuantity(ctx context.Context, args SetQuantityArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.cart.SetQuantity(ctx, args.ID, args.Quantity)
	if err != nil {
		return nil, err
	}
	return d.view(c), nil
}

// ReplaceCart overwrites the server cart with the given lines.
func (d *Dispatcher) ReplaceCart(ctx context.Context, args ReplaceCartArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	c, err := d.cart.Replace(ctx, args.Items)
	if err != nil {
		return nil, err
	}
	return d.view(c), nil
}

// SetFulfillment stores the fulfillment selection on cart and client.
func (d *Dispatcher) SetFulfillment(ctx context.Context, args FulfillmentArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	st := model.NormalizeServiceType(args.ServiceType)
	if st == model.ServiceUnknown {
		return nil, model.NewValidationError("service_type", "unknown service type "+args.ServiceType)
	}
	sel := model.FulfillmentSelection{ServiceType: st, TableNumber: args.TableNumber}
	if err := d.cart.SetMeta(ctx, sel); err != nil {
		return nil, err
	}
	return d.view(d.cart.Fetch(ctx)), nil
}

// ApplyCoupon validates and caches a coupon code.
func (d *Dispatcher) ApplyCoupon(ctx context.Context, args CouponArgs) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, err := d.cart.ApplyCoupon(ctx, args.Code); err != nil {
		return nil, err
	}
	return d.view(d.cart.Fetch(ctx)), nil
}

// ClearCoupon drops the cached coupon.
func (d *Dispatcher) ClearCoupon(ctx context.Context) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.cart.ClearCoupon(); err != nil {
		return nil, err
	}
	return d.view(d.cart.Fetch(ctx)), nil
}

// ResetSession abandons the server cart session and all local state.
func (d *Dispatcher) ResetSession(ctx context.Context) (*CartView, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.cart.ResetSession(ctx); err != nil {
		return nil, err
	}
	return d.view(d.cart.Fetch(ctx)), nil
}

// Checkout runs the checkout handoff. The navigation is the result; the
// caller learns where the user went from its Navigator.
func (d *Dispatcher) Checkout(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orch.Checkout(ctx)
}

// ResumeAfterLogin merges the guest cart and replays a parked checkout.
func (d *Dispatcher) ResumeAfterLogin(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.orch.ResumeAfterLogin(ctx)
}

// Login authenticates and resumes any parked action.
func (d *Dispatcher) Login(ctx context.Context, args LoginArgs) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.api.Login(ctx, args.Username, args.Password); err != nil {
		return err
	}
	return d.orch.ResumeAfterLogin(ctx)
}

// Register creates an account and resumes any parked action.
func (d *Dispatcher) Register(ctx context.Context, args RegisterArgs) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.api.Register(ctx, args.Username, args.Email, args.Password); err != nil {
		return err
	}
	return d.orch.ResumeAfterLogin(ctx)
}

// Logout drops tokens and server session.
func (d *Dispatcher) Logout(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.Logout(ctx)
}

// Whoami reports the authenticated identity, if any.
func (d *Dispatcher) Whoami(ctx context.Context) api.Identity {
	return d.api.Whoami(ctx)
}

// Orders lists the authenticated account's order history.
func (d *Dispatcher) Orders(ctx context.Context) ([]model.OrderSummary, error) {
	return d.orch.History(ctx)
}

// Dispatch routes a named intent with a raw JSON payload. This is the REST
// surface's entry point; typed surfaces call the methods directly.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload json.RawMessage) (any, error) {
	switch name {
	case "get_cart":
		return d.GetCart(ctx), nil
	case "add_item":
		var args AddItemArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.AddItem(ctx, args)
	case "remove_item":
		var args RemoveItemArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.RemoveItem(ctx, args)
	case "set_quantity":
		var args SetQuantityArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.SetQuantity(ctx, args)
	case "replace_cart":
		var args ReplaceCartArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.ReplaceCart(ctx, args)
	case "set_fulfillment":
		var args FulfillmentArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.SetFulfillment(ctx, args)
	case "apply_coupon":
		var args CouponArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return d.ApplyCoupon(ctx, args)
	case "clear_coupon":
		return d.ClearCoupon(ctx)
	case "reset_session":
		return d.ResetSession(ctx)
	case "checkout":
		return nil, d.Checkout(ctx)
	case "resume":
		return nil, d.ResumeAfterLogin(ctx)
	case "login":
		var args LoginArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return nil, d.Login(ctx, args)
	case "register":
		var args RegisterArgs
		if err := decode(payload, &args); err != nil {
			return nil, err
		}
		return nil, d.Register(ctx, args)
	case "logout":
		return nil, d.Logout(ctx)
	case "whoami":
		return d.Whoami(ctx), nil
	case "orders":
		return d.Orders(ctx)
	default:
		return nil, model.NewNotFoundError("intent " + name)
	}
}

// Names lists every dispatchable intent, for surface discovery.
func Names() []string {
	return []string{
		"get_cart", "add_item", "remove_item", "set_quantity", "replace_cart",
		"set_fulfillment", "apply_coupon", "clear_coupon", "reset_session",
		"checkout", "resume", "login", "register", "logout", "whoami", "orders",
	}
}

func decode(payload json.RawMessage, out any) error {
	if len(payload) == 0 {
		return model.NewValidationError("payload", "required for this intent")
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return model.NewValidationError("payload", err.Error())
	}
	return nil
}

func (d *Dispatcher) view(c *model.Cart) *CartView {
	coupon := d.state.Coupon()
	totals := cart.ComputeTotals(c, coupon)
	return &CartView{
		Cart:     c,
		Coupon:   coupon,
		Subtotal: model.FormatCents(totals.Subtotal),
		Discount: model.FormatCents(totals.Discount),
		Total:    model.FormatCents(totals.Total),
	}
}
