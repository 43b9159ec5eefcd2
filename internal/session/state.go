// Package session carries the client-side state that must survive a page
// load or a login redirect: the pending action slot, the applied coupon,
// the fulfillment selection, and the guest-cart snapshot. It also bridges
// token auth to the backend's cookie session before server-rendered
// handoffs.
package session

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"storefront-client/internal/model"
)

const stateFile = "session.json"

// PendingAction is a deferred intent, parked while the user completes a
// login round-trip. The slot holds at most one action: writing a new one
// replaces whatever was there. Kind names the intent; Payload is the
// intent's own arguments, opaque to this package.
type PendingAction struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
	SavedAt time.Time       `json:"saved_at"`
}

// State is everything persisted between runs.
type State struct {
	Pending     *PendingAction             `json:"pending,omitempty"`
	Coupon      *model.AppliedCoupon       `json:"coupon,omitempty"`
	Fulfillment *model.FulfillmentSelection `json:"fulfillment,omitempty"`

	// GuestCart is a snapshot of cart lines built before login, kept so
	// they can be merged into the account cart afterwards.
	GuestCart []model.CartLine `json:"guest_cart,omitempty"`
}

// Store is the file-backed state store. Mutations write through to disk.
type Store struct {
	path string

	mu    sync.Mutex
	state State
}

// NewStore opens the state store under dir. Missing or corrupt files start
// the state empty.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	s := &Store{path: filepath.Join(dir, stateFile)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	_ = json.Unmarshal(data, &s.state)
	return s, nil
}

// SetPending parks an action. Last writer wins: a second deferred intent
// before the first resumes simply replaces it.
func (s *Store) SetPending(kind string, payload json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Pending = &PendingAction{Kind: kind, Payload: payload, SavedAt: time.Now().UTC()}
	return s.write()
}

// TakePending returns the parked action and clears the slot, so a resume
// runs at most once. Returns nil when nothing is parked.
func (s *Store) TakePending() (*PendingAction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.state.Pending
	if p == nil {
		return nil, nil
	}
	s.state.Pending = nil
	if err := s.write(); err != nil {
		return nil, err
	}
	return p, nil
}

// Coupon returns the applied coupon, or nil.
func (s *Store) Coupon() *model.AppliedCoupon {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Coupon == nil {
		return nil
	}
	c := *s.state.Coupon
	return &c
}

// SetCoupon stores a validated coupon. nil clears it.
func (s *Store) SetCoupon(c *model.AppliedCoupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Coupon = c
	return s.write()
}

// Fulfillment returns the saved fulfillment selection, or nil.
func (s *Store) Fulfillment() *model.FulfillmentSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Fulfillment == nil {
		return nil
	}
	f := *s.state.Fulfillment
	return &f
}

// SetFulfillment stores the fulfillment selection. nil clears it.
func (s *Store) SetFulfillment(f *model.FulfillmentSelection) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Fulfillment = f
	return s.write()
}

// SnapshotGuestCart saves the anonymous cart's lines ahead of a login.
func (s *Store) SnapshotGuestCart(lines []model.CartLine) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.GuestCart = append([]model.CartLine(nil), lines...)
	return s.write()
}

// TakeGuestCart returns and clears the guest-cart snapshot.
func (s *Store) TakeGuestCart() ([]model.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lines := s.state.GuestCart
	if lines == nil {
		return nil, nil
	}
	s.state.GuestCart = nil
	if err := s.write(); err != nil {
		return nil, err
	}
	return lines, nil
}

// Reset drops all persisted state. Used when the backend session is reset.
func (s *Store) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	return s.write()
}

// write persists the state. Caller holds s.mu.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
