// Package checkout drives the handoff from a reconciled cart to payment.
// The flow is: verify the user can pay, make sure the server session is
// live, place the order, then send the user either to the payment provider
// or to the chosen aggregator. One checkout runs at a time; every failure
// re-enables the pay flow instead of retrying behind the user's back.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/model"
	"storefront-client/internal/session"
)

const (
	pathOrders = "/api/orders/"
	// pathPaymentSession is POSTed to mint a hosted-payment URL. The same
	// path answers GET with a 302 straight into the provider, which is the
	// fallback destination when the POST body carries no URL.
	pathPaymentSession = "/api/payments/checkout-session/"
)

// pendingCheckout is the Kind parked in the session store when checkout is
// interrupted by a required login.
const pendingCheckout = "checkout"

// Navigator is where the orchestrator sends the user at the end of a flow.
// The embedding surface decides what "navigate" means: a browser redirect,
// an opened tab, or a printed URL in the CLI.
type Navigator interface {
	Navigate(url string) error
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(url string) error

func (f NavigatorFunc) Navigate(url string) error { return f(url) }

// Orchestrator runs the checkout handoff.
type Orchestrator struct {
	api    *api.Client
	bridge *session.Bridge
	cart   *cart.Reconciler
	state  *session.Store
	nav    Navigator
	log    *slog.Logger

	// LoginURL is where an unauthenticated checkout sends the user.
	LoginURL string

	mu   sync.Mutex
	busy bool
}

// New creates an orchestrator over the assembled client stack.
func New(client *api.Client, bridge *session.Bridge, rec *cart.Reconciler, state *session.Store, nav Navigator, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		api:      client,
		bridge:   bridge,
		cart:     rec,
		state:    state,
		nav:      nav,
		log:      logger,
		LoginURL: "/login",
	}
}

// CanPay reports whether checkout may start: a non-empty cart and a valid
// fulfillment selection. The returned error says which precondition failed.
func (o *Orchestrator) CanPay(ctx context.Context) error {
	current := o.cart.Fetch(ctx)
	if current.IsEmpty() {
		return &model.APIError{
			Code:       "CART_EMPTY",
			Message:    "cannot check out an empty cart",
			StatusCode: http.StatusConflict,
			Err:        model.ErrCartEmpty,
		}
	}

	sel := o.state.Fulfillment()
	if sel == nil {
		return model.NewValidationError("service_type", "fulfillment selection required")
	}
	return sel.Validate()
}

// Checkout runs the full handoff. On a missing login it parks a pending
// checkout, snapshots the guest cart, and navigates to the login page; the
// caller resumes with ResumeAfterLogin once credentials exist.
func (o *Orchestrator) Checkout(ctx context.Context) error {
	if !o.acquire() {
		return &model.APIError{
			Code:       "CHECKOUT_BUSY",
			Message:    "a checkout is already in progress",
			StatusCode: http.StatusConflict,
			Err:        model.ErrInvalidRequest,
		}
	}
	defer o.release()

	if err := o.CanPay(ctx); err != nil {
		return err
	}

	if err := o.bridge.EnsureSession(ctx); err != nil {
		return o.deferForLogin(ctx, err)
	}

	sel := o.state.Fulfillment()
	if err := o.cart.SetMeta(ctx, *sel); err != nil {
		return model.NewCheckoutError("storing fulfillment", err)
	}

	order, err := o.placeOrder(ctx, sel)
	if err != nil {
		return err
	}

	if sel.ServiceType.IsAggregator() {
		return o.handoffAggregator(order, sel.ServiceType)
	}
	return o.handoffPayment(ctx, order)
}

// ResumeAfterLogin continues whatever was interrupted by a login. The guest
// cart merges first so the order sees every line; a failed merge is logged
// but does not block the parked action, since checkout re-validates the
// cart anyway.
func (o *Orchestrator) ResumeAfterLogin(ctx context.Context) error {
	if _, err := o.cart.MergeGuestCart(ctx); err != nil {
		o.log.Warn("guest cart merge failed", "error", err)
	}

	pending, err := o.state.TakePending()
	if err != nil {
		return err
	}
	if pending == nil || pending.Kind != pendingCheckout {
		return nil
	}
	o.log.Info("resuming checkout after login")
	return o.Checkout(ctx)
}

// deferForLogin parks the checkout and routes to the login page.
func (o *Orchestrator) deferForLogin(ctx context.Context, cause error) error {
	if err := o.cart.SnapshotForLogin(ctx); err != nil {
		o.log.Warn("guest cart snapshot failed", "error", err)
	}
	if err := o.state.SetPending(pendingCheckout, nil); err != nil {
		return err
	}
	if err := o.nav.Navigate(o.LoginURL); err != nil {
		return err
	}
	return model.NewUnauthorizedError("login required to check out: " + cause.Error())
}

// placeOrder converts the server cart into an order.
func (o *Orchestrator) placeOrder(ctx context.Context, sel *model.FulfillmentSelection) (*model.Order, error) {
	body := map[string]any{
		"service_type": sel.ServiceType,
	}
	if sel.TableNumber > 0 {
		body["table_number"] = sel.TableNumber
	}
	if coupon := o.state.Coupon(); coupon != nil {
		body["coupon_code"] = coupon.Code
	}

	var order model.Order
	if err := o.api.Post(ctx, pathOrders, body, &order); err != nil {
		return nil, model.NewCheckoutError("placing order", err)
	}
	if order.ID == 0 {
		return nil, model.NewCheckoutError("placing order", fmt.Errorf("response carried no order id"))
	}

	o.log.Info("order placed", "order_id", order.ID, "service_type", sel.ServiceType)
	return &order, nil
}

// History lists the authenticated account's past orders, newest first.
func (o *Orchestrator) History(ctx context.Context) ([]model.OrderSummary, error) {
	var orders []model.OrderSummary
	if err := o.api.Get(ctx, pathOrders, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// handoffAggregator sends the user to the external platform matching the
// selected service type.
func (o *Orchestrator) handoffAggregator(order *model.Order, st model.ServiceType) error {
	opt := order.ExternalOption(st)
	if opt == nil || opt.URL == "" {
		return model.NewCheckoutError("aggregator handoff",
			fmt.Errorf("order %d advertises no destination for %s", order.ID, st))
	}
	o.log.Info("handing off to aggregator", "order_id", order.ID, "destination", opt.Code)
	return o.nav.Navigate(opt.URL)
}

// handoffPayment sends the user to the hosted payment page, trying each
// source of a URL in turn: the order response itself, then a minted
// payment session, then the backend's own redirecting endpoint.
func (o *Orchestrator) handoffPayment(ctx context.Context, order *model.Order) error {
	if order.CheckoutURL != "" {
		return o.nav.Navigate(order.CheckoutURL)
	}

	sessionPath := pathPaymentSession + strconv.Itoa(order.ID) + "/"

	var minted struct {
		URL string `json:"url"`
	}
	err := o.api.Post(ctx, sessionPath, struct{}{}, &minted)
	if err == nil && minted.URL != "" {
		return o.nav.Navigate(minted.URL)
	}
	if err != nil {
		o.log.Warn("payment session mint failed, falling back to redirect endpoint",
			"order_id", order.ID, "error", err)
	}

	// Last resort: the GET form of the endpoint 302s into the provider.
	return o.nav.Navigate(o.api.BaseURL() + sessionPath)
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.busy {
		return false
	}
	o.busy = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.busy = false
	o.mu.Unlock()
}
