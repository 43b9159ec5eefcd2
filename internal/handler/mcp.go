// MCP transport: the same intents the REST surface dispatches, exposed as
// typed tools so agent frontends can drive the cart and checkout.
package handler

import (
	"context"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-client/internal/dispatch"
)

// AddItemInput is the input schema for the add_item tool.
type AddItemInput struct {
	ID       int `json:"id" jsonschema:"catalog item id,required"`
	Quantity int `json:"quantity" jsonschema:"quantity to add,required"`
}

// SetQuantityInput is the input schema for the set_quantity tool.
type SetQuantityInput struct {
	ID       int `json:"id" jsonschema:"catalog item id,required"`
	Quantity int `json:"quantity" jsonschema:"absolute quantity; 0 removes the line,required"`
}

// RemoveItemInput is the input schema for the remove_item tool.
type RemoveItemInput struct {
	ID int `json:"id" jsonschema:"catalog item id,required"`
}

// SetFulfillmentInput is the input schema for the set_fulfillment tool.
type SetFulfillmentInput struct {
	ServiceType string `json:"service_type" jsonschema:"DINE_IN, TAKEAWAY, UBEREATS or DOORDASH (synonyms accepted),required"`
	TableNumber int    `json:"table_number,omitempty" jsonschema:"table number, required for dine-in"`
}

// ApplyCouponInput is the input schema for the apply_coupon tool.
type ApplyCouponInput struct {
	Code string `json:"code" jsonschema:"coupon code to validate and apply,required"`
}

// EmptyInput is the input schema for tools that take no arguments.
type EmptyInput struct{}

// StatusOutput is returned by tools whose effect is a navigation or state
// change rather than a cart view.
type StatusOutput struct {
	Status string `json:"status"`
}

// NewMCPServer creates an MCP server with the storefront tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront-client",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront ordering tools. Build a cart, choose a fulfillment " +
				"method, apply coupons, then check out to get a payment or aggregator URL.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the current cart with display totals.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_item",
		Description: "Add a quantity of an item to the cart. Adding is relative to the existing quantity.",
	}, h.mcpAddItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_quantity",
		Description: "Set a cart line to an absolute quantity. Zero removes the line.",
	}, h.mcpSetQuantity)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_item",
		Description: "Remove a line from the cart entirely.",
	}, h.mcpRemoveItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_fulfillment",
		Description: "Choose how the order is fulfilled. Dine-in requires a table number.",
	}, h.mcpSetFulfillment)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "apply_coupon",
		Description: "Validate a coupon code with the backend and apply it to the totals.",
	}, h.mcpApplyCoupon)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Place the order and hand off to payment or the selected aggregator.",
	}, h.mcpCheckout)

	return server
}

// NewMCPHandler returns the HTTP handler for the MCP endpoint; mount at /mcp.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	return nil, h.dispatcher.GetCart(ctx), nil
}

func (h *Handler) mcpAddItem(ctx context.Context, req *mcp.CallToolRequest, input AddItemInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	view, err := h.dispatcher.AddItem(ctx, dispatch.AddItemArgs{ID: input.ID, Quantity: input.Quantity})
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}

func (h *Handler) mcpSetQuantity(ctx context.Context, req *mcp.CallToolRequest, input SetQuantityInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	view, err := h.dispatcher.SetQuantity(ctx, dispatch.SetQuantityArgs{ID: input.ID, Quantity: input.Quantity})
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}

func (h *Handler) mcpRemoveItem(ctx context.Context, req *mcp.CallToolRequest, input RemoveItemInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	view, err := h.dispatcher.RemoveItem(ctx, dispatch.RemoveItemArgs{ID: input.ID})
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}

func (h *Handler) mcpSetFulfillment(ctx context.Context, req *mcp.CallToolRequest, input SetFulfillmentInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	view, err := h.dispatcher.SetFulfillment(ctx, dispatch.FulfillmentArgs{
		ServiceType: input.ServiceType,
		TableNumber: input.TableNumber,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}

func (h *Handler) mcpApplyCoupon(ctx context.Context, req *mcp.CallToolRequest, input ApplyCouponInput) (*mcp.CallToolResult, *dispatch.CartView, error) {
	view, err := h.dispatcher.ApplyCoupon(ctx, dispatch.CouponArgs{Code: input.Code})
	if err != nil {
		return nil, nil, err
	}
	return nil, view, nil
}

func (h *Handler) mcpCheckout(ctx context.Context, req *mcp.CallToolRequest, input EmptyInput) (*mcp.CallToolResult, *StatusOutput, error) {
	if err := h.dispatcher.Checkout(ctx); err != nil {
		return nil, nil, err
	}
	return nil, &StatusOutput{Status: "handoff started"}, nil
}
