package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront-client/internal/api"
	"storefront-client/internal/cart"
	"storefront-client/internal/checkout"
	"storefront-client/internal/dispatch"
	"storefront-client/internal/model"
	"storefront-client/internal/session"
	"storefront-client/internal/token"
)

// newServer stands up the full stack: fake backend → dispatcher → handler.
func newServer(t *testing.T) (*httptest.Server, *struct {
	mu    sync.Mutex
	items map[int]int
}) {
	t.Helper()

	state := &struct {
		mu    sync.Mutex
		items map[int]int
	}{items: map[int]int{}}

	backendMux := http.NewServeMux()
	backendMux.HandleFunc("GET /api/orders/cart/", func(w http.ResponseWriter, r *http.Request) {
		state.mu.Lock()
		defer state.mu.Unlock()
		lines := make([]model.CartLine, 0, len(state.items))
		for id, q := range state.items {
			lines = append(lines, model.CartLine{ID: id, Quantity: q, UnitPrice: 750})
		}
		json.NewEncoder(w).Encode(model.Cart{Items: lines, Currency: "usd"})
	})
	backendMux.HandleFunc("POST /api/orders/cart/items/", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ ID, Quantity int }
		json.NewDecoder(r.Body).Decode(&body)
		state.mu.Lock()
		state.items[body.ID] += body.Quantity
		state.mu.Unlock()
		w.Write([]byte(`{}`))
	})
	backend := httptest.NewServer(backendMux)
	t.Cleanup(backend.Close)

	tokens, err := token.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	client, err := api.New(api.Config{BaseURL: backend.URL, Tokens: tokens})
	if err != nil {
		t.Fatal(err)
	}
	sessState, err := session.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := cart.NewReconciler(client, sessState, nil)
	bridge := session.NewBridge(client, nil)
	orch := checkout.New(client, bridge, rec, sessState, checkout.NavigatorFunc(func(string) error { return nil }), nil)
	d := dispatch.New(client, rec, orch, sessState, nil)

	mux := http.NewServeMux()
	New(d, nil).RegisterRoutes(mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, state
}

func TestHandleHealth(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/healthz")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestHandleIntent_AddItem(t *testing.T) {
	srv, state := newServer(t)

	resp, err := http.Post(srv.URL+"/intents/add_item", "application/json",
		strings.NewReader(`{"id": 4, "quantity": 2}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var view dispatch.CartView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Total != "15.00" {
		t.Errorf("total = %s, want 15.00 (2 × 7.50)", view.Total)
	}
	if state.items[4] != 2 {
		t.Errorf("backend item 4 = %d, want 2", state.items[4])
	}
}

func TestHandleIntent_Unknown(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/intents/no_such_intent", "application/json", strings.NewReader(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}

	var body errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", body.Error.Code)
	}
}

func TestHandleIntent_InvalidPayload(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Post(srv.URL+"/intents/add_item", "application/json", strings.NewReader(`{"id": 1, "quantity": -3}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestHandleGetCart(t *testing.T) {
	srv, state := newServer(t)
	state.items[9] = 1

	resp, err := http.Get(srv.URL + "/cart")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var view dispatch.CartView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if view.Cart == nil || view.Cart.Line(9) == nil {
		t.Errorf("cart view = %+v, want line 9", view)
	}
}

func TestListIntents(t *testing.T) {
	srv, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/intents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body struct {
		Intents []string `json:"intents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Intents) == 0 {
		t.Fatal("no intents listed")
	}
	found := false
	for _, name := range body.Intents {
		if name == "checkout" {
			found = true
		}
	}
	if !found {
		t.Error("checkout intent missing from listing")
	}
}

func TestNewMCPServer(t *testing.T) {
	srv, _ := newServer(t)

	// The MCP endpoint must at least answer HTTP; protocol-level behavior is
	// the SDK's concern.
	resp, err := http.Get(srv.URL + "/mcp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		t.Error("MCP endpoint not mounted")
	}
}
