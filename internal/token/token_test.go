package token

import (
	"os"
	"path/filepath"
	"testing"
)

func TestStore_SetAndGet(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if s.Access() != "" || s.Refresh() != "" {
		t.Fatal("fresh store must start empty")
	}

	if err := s.Set("acc-1", "ref-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if s.Access() != "acc-1" || s.Refresh() != "ref-1" {
		t.Errorf("got (%q, %q), want (acc-1, ref-1)", s.Access(), s.Refresh())
	}
}

func TestStore_EmptyRefreshPreservesPrevious(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}

	if err := s.Set("acc-1", "ref-1"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	// Refresh responses that rotate only the access token send no refresh.
	if err := s.Set("acc-2", ""); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if s.Access() != "acc-2" {
		t.Errorf("Access() = %q, want acc-2", s.Access())
	}
	if s.Refresh() != "ref-1" {
		t.Errorf("Refresh() = %q, want ref-1 (preserved)", s.Refresh())
	}
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s1.Set("acc", "ref"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s2.Access() != "acc" || s2.Refresh() != "ref" {
		t.Errorf("reopened store got (%q, %q), want (acc, ref)", s2.Access(), s2.Refresh())
	}
}

func TestStore_Clear(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set("acc", "ref"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := s.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	if s.Access() != "" || s.Refresh() != "" {
		t.Error("Clear must drop both tokens")
	}

	// And the cleared state must survive a reopen.
	s2, err := NewStore(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if s2.Access() != "" || s2.Refresh() != "" {
		t.Error("cleared state must persist")
	}
}

func TestStore_CorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, fileName), []byte("not json{"), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if s.Access() != "" || s.Refresh() != "" {
		t.Error("corrupt file must be treated as logged out")
	}
}

func TestStore_FileMode(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	if err := s.Set("acc", "ref"); err != nil {
		t.Fatalf("Set: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, fileName))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if mode := info.Mode().Perm(); mode != 0o600 {
		t.Errorf("token file mode = %o, want 600", mode)
	}
}
