// storefront is a CLI for driving an ordering backend: build a cart, pick a
// fulfillment method, apply coupons, and check out. Each command performs a
// single operation, making it composable for scripts.
//
// Commands:
//
//	storefront login -backend URL -user NAME -pass SECRET
//	storefront add -backend URL -item ID [-qty N]
//	storefront set -backend URL -item ID -qty N
//	storefront rm -backend URL -item ID
//	storefront cart -backend URL
//	storefront fulfill -backend URL -type TYPE [-table N]
//	storefront coupon -backend URL -code CODE
//	storefront checkout -backend URL
//	storefront logout|whoami|reset -backend URL
//
// Example:
//
//	storefront add -backend http://localhost:8000 -item 12 -qty 2
//	storefront fulfill -backend http://localhost:8000 -type takeaway
//	storefront checkout -backend http://localhost:8000
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/checkout"
	"storefront-client/internal/dispatch"
	"storefront-client/internal/model"
	"storefront-client/internal/session"
	"storefront-client/internal/token"
)

// ANSI color codes
var (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
	colorBold  = "\033[1m"
)

func init() {
	if os.Getenv("NO_COLOR") != "" {
		colorReset, colorRed, colorGreen, colorCyan, colorBold = "", "", "", "", ""
	}
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "login", "logout", "whoami", "add", "set", "rm", "cart",
		"fulfill", "coupon", "checkout", "reset", "orders":
		runCommand(cmd, args)
	case "-h", "-help", "--help", "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `%sstorefront%s - cart and checkout client

Usage:
  storefront <command> [flags]

Commands:
  login     Log in and resume any parked checkout
  logout    Log out and drop stored tokens
  whoami    Show the authenticated identity
  cart      Show the cart with totals
  add       Add a quantity of an item (relative)
  set       Set a line to an absolute quantity (0 removes)
  rm        Remove a line
  fulfill   Choose fulfillment: dine_in, takeaway, ubereats, doordash
  coupon    Validate and apply a coupon code
  checkout  Place the order and print the handoff URL
  reset     Abandon the cart session and local state
  orders    List the account's order history

Common flags:
  -backend URL   ordering backend origin (or BACKEND_URL)
  -data DIR      state directory (default ~/.storefront)
`, colorBold, colorReset)
}

func runCommand(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	var (
		itemID  = fs.Int("item", 0, "catalog item id")
		qty     = fs.Int("qty", 1, "quantity")
		user    = fs.String("user", "", "username")
		pass    = fs.String("pass", "", "password")
		ftype   = fs.String("type", "", "service type")
		table   = fs.Int("table", 0, "table number (dine-in)")
		code    = fs.String("code", "", "coupon code")
		backend = fs.String("backend", os.Getenv("BACKEND_URL"), "backend origin")
		dataDir = fs.String("data", defaultDataDir(), "state directory")
	)
	fs.Parse(args)

	if *backend == "" {
		fail("backend URL required (-backend or BACKEND_URL)")
	}

	d, err := buildDispatcher(*backend, *dataDir)
	if err != nil {
		fail("%v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	switch cmd {
	case "login":
		if *user == "" || *pass == "" {
			fail("login requires -user and -pass")
		}
		must(d.Login(ctx, dispatch.LoginArgs{Username: *user, Password: *pass}))
		ok("logged in as %s", *user)
	case "logout":
		must(d.Logout(ctx))
		ok("logged out")
	case "whoami":
		id := d.Whoami(ctx)
		if !id.Authenticated {
			fmt.Println("anonymous")
			return
		}
		fmt.Println(id.Username)
	case "cart":
		printCart(d.GetCart(ctx))
	case "add":
		view, err := d.AddItem(ctx, dispatch.AddItemArgs{ID: *itemID, Quantity: *qty})
		must(err)
		printCart(view)
	case "set":
		view, err := d.SetQuantity(ctx, dispatch.SetQuantityArgs{ID: *itemID, Quantity: *qty})
		must(err)
		printCart(view)
	case "rm":
		view, err := d.RemoveItem(ctx, dispatch.RemoveItemArgs{ID: *itemID})
		must(err)
		printCart(view)
	case "fulfill":
		view, err := d.SetFulfillment(ctx, dispatch.FulfillmentArgs{ServiceType: *ftype, TableNumber: *table})
		must(err)
		printCart(view)
	case "coupon":
		view, err := d.ApplyCoupon(ctx, dispatch.CouponArgs{Code: *code})
		must(err)
		printCart(view)
	case "checkout":
		must(d.Checkout(ctx))
		ok("checkout handoff started")
	case "reset":
		_, err := d.ResetSession(ctx)
		must(err)
		ok("cart session reset")
	case "orders":
		orders, err := d.Orders(ctx)
		must(err)
		if len(orders) == 0 {
			fmt.Println("no orders")
			return
		}
		for _, o := range orders {
			paid := " "
			if o.IsPaid {
				paid = "paid"
			}
			fmt.Printf("  #%-5d %-10s %-9s %8s  %s\n", o.ID, o.Status, o.ServiceType, o.Total, paid)
		}
	}
}

func buildDispatcher(backendURL, dataDir string) (*dispatch.Dispatcher, error) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	tokens, err := token.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening token store: %w", err)
	}
	client, err := api.New(api.Config{
		BaseURL: backendURL,
		Tokens:  tokens,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	state, err := session.NewStore(dataDir)
	if err != nil {
		return nil, fmt.Errorf("opening session store: %w", err)
	}

	rec := cart.NewReconciler(client, state, logger)
	bridge := session.NewBridge(client, logger)

	// The CLI's navigator prints the handoff URL for the user to open.
	nav := checkout.NavigatorFunc(func(url string) error {
		fmt.Printf("%sopen:%s %s\n", colorCyan, colorReset, url)
		return nil
	})
	orch := checkout.New(client, bridge, rec, state, nav, logger)

	return dispatch.New(client, rec, orch, state, logger), nil
}

func printCart(view *dispatch.CartView) {
	if view.Cart == nil || view.Cart.IsEmpty() {
		fmt.Println("cart is empty")
		return
	}
	for _, line := range view.Cart.Items {
		fmt.Printf("  %3d× %-30s %s\n", line.Quantity, nameOrID(line.Name, line.ID), model.FormatCents(line.LineTotal()))
	}
	fmt.Printf("  subtotal %s\n", view.Subtotal)
	if view.Coupon != nil {
		fmt.Printf("  coupon %s (-%s)\n", view.Coupon.Code, view.Discount)
	}
	fmt.Printf("  %stotal %s%s\n", colorBold, view.Total, colorReset)
}

func nameOrID(name string, id int) string {
	if name != "" {
		return name
	}
	return fmt.Sprintf("item %d", id)
}

func defaultDataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".storefront")
	}
	return ".storefront"
}

func ok(format string, args ...any) {
	fmt.Printf(colorGreen+"✓ "+colorReset+format+"\n", args...)
}

func fail(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"error: "+colorReset+format+"\n", args...)
	os.Exit(1)
}

func must(err error) {
	if err != nil {
		fail("%v", err)
	}
}
