package session

import (
	"encoding/json"
	"testing"

	"storefront-client/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestPendingAction_LastWriterWins(t *testing.T) {
	s := newTestStore(t)

	if err := s.SetPending("checkout", nil); err != nil {
		t.Fatalf("SetPending: %v", err)
	}
	if err := s.SetPending("add_item", json.RawMessage(`{"id": 5}`)); err != nil {
		t.Fatalf("SetPending: %v", err)
	}

	p, err := s.TakePending()
	if err != nil {
		t.Fatalf("TakePending: %v", err)
	}
	if p == nil || p.Kind != "add_item" {
		t.Fatalf("TakePending = %+v, want the later add_item action", p)
	}

	// The slot is consumed: a second take finds nothing.
	p2, err := s.TakePending()
	if err != nil {
		t.Fatalf("second TakePending: %v", err)
	}
	if p2 != nil {
		t.Errorf("second TakePending = %+v, want nil", p2)
	}
}

func TestState_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	s1, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s1.SetPending("checkout", nil); err != nil {
		t.Fatal(err)
	}
	if err := s1.SetCoupon(&model.AppliedCoupon{Code: "SAVE10", PercentOff: 10}); err != nil {
		t.Fatal(err)
	}
	if err := s1.SetFulfillment(&model.FulfillmentSelection{ServiceType: model.ServiceDineIn, TableNumber: 3}); err != nil {
		t.Fatal(err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	p, err := s2.TakePending()
	if err != nil || p == nil || p.Kind != "checkout" {
		t.Errorf("pending after reopen = %+v, %v; want checkout", p, err)
	}
	if c := s2.Coupon(); c == nil || c.Code != "SAVE10" || c.PercentOff != 10 {
		t.Errorf("coupon after reopen = %+v", c)
	}
	if f := s2.Fulfillment(); f == nil || f.ServiceType != model.ServiceDineIn || f.TableNumber != 3 {
		t.Errorf("fulfillment after reopen = %+v", f)
	}
}

func TestGuestCartSnapshot(t *testing.T) {
	s := newTestStore(t)

	lines := []model.CartLine{{ID: 1, Name: "Soup", Quantity: 2, UnitPrice: 600}}
	if err := s.SnapshotGuestCart(lines); err != nil {
		t.Fatalf("SnapshotGuestCart: %v", err)
	}

	got, err := s.TakeGuestCart()
	if err != nil {
		t.Fatalf("TakeGuestCart: %v", err)
	}
	if len(got) != 1 || got[0].ID != 1 || got[0].Quantity != 2 {
		t.Errorf("TakeGuestCart = %+v", got)
	}

	got2, err := s.TakeGuestCart()
	if err != nil {
		t.Fatalf("second TakeGuestCart: %v", err)
	}
	if got2 != nil {
		t.Errorf("snapshot must be consumed, got %+v", got2)
	}
}

func TestReset_ClearsEverything(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCoupon(&model.AppliedCoupon{Code: "X", PercentOff: 5}); err != nil {
		t.Fatal(err)
	}
	if err := s.SetFulfillment(&model.FulfillmentSelection{ServiceType: model.ServiceTakeaway}); err != nil {
		t.Fatal(err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	if s.Coupon() != nil || s.Fulfillment() != nil {
		t.Error("Reset must clear coupon and fulfillment")
	}
}

func TestCoupon_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	if err := s.SetCoupon(&model.AppliedCoupon{Code: "SAVE10", PercentOff: 10}); err != nil {
		t.Fatal(err)
	}

	c := s.Coupon()
	c.PercentOff = 99
	if s.Coupon().PercentOff != 10 {
		t.Error("mutating the returned coupon must not affect stored state")
	}
}
