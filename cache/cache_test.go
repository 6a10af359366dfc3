package cache

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "cache.db"), zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGet(t *testing.T) {
	s := openTestStore(t)

	if _, ok := s.Get("missing"); ok {
		t.Error("expected miss for unknown key")
	}

	s.Put("k1", "reply one")
	got, ok := s.Get("k1")
	if !ok || got != "reply one" {
		t.Errorf("Get(k1) = %q, %v", got, ok)
	}

	// Replacing an entry keeps the latest value.
	s.Put("k1", "reply two")
	got, ok = s.Get("k1")
	if !ok || got != "reply two" {
		t.Errorf("Get(k1) after replace = %q, %v", got, ok)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.db")

	s, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	s.Put("k", "v")
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s2.Close()

	got, ok := s2.Get("k")
	if !ok || got != "v" {
		t.Errorf("Get after reopen = %q, %v", got, ok)
	}
}
