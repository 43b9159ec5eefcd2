// Package token persists the access/refresh token pair for the storefront
// API client. Tokens are opaque strings: no decoding, no expiry inspection.
// Expiry is discovered the hard way, by a request coming back 401.
package token

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const fileName = "tokens.json"

type credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Store is a file-backed token store. Every mutation is written through to
// disk before returning, so a crash between Set and the next request never
// loses a rotated refresh token.
type Store struct {
	path string

	mu    sync.Mutex
	creds credentials
}

// NewStore opens (or creates) the token store under dir. A missing or
// unreadable file starts the store empty; it is not an error, the user is
// simply logged out.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	s := &Store{path: filepath.Join(dir, fileName)}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	// A corrupt file is treated the same as an absent one.
	_ = json.Unmarshal(data, &s.creds)
	return s, nil
}

// Access returns the current access token, or "" when logged out.
func (s *Store) Access() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Access
}

// Refresh returns the current refresh token, or "".
func (s *Store) Refresh() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds.Refresh
}

// Set stores a new token pair. An empty refresh preserves the previous one:
// the backend's refresh endpoint rotates only the access token on some
// deployments, and dropping the refresh token there would silently log
// the user out of long sessions.
func (s *Store) Set(access, refresh string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds.Access = access
	if refresh != "" {
		s.creds.Refresh = refresh
	}
	return s.write()
}

// Clear forgets both tokens. Called on logout and on refresh failure.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials{}
	return s.write()
}

// write persists the current pair. Caller holds s.mu.
func (s *Store) write() error {
	data, err := json.MarshalIndent(s.creds, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o600)
}
