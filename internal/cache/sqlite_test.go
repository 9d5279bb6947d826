package cache

import (
	"path/filepath"
	"testing"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("newTestSQLiteStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSQLiteStoreGetSet(t *testing.T) {
	s := newTestSQLiteStore(t)

	// Missing key reports a clean miss.
	if _, ok, err := s.GetItem("absent"); ok || err != nil {
		t.Errorf("GetItem(absent) = ok=%v err=%v, want miss", ok, err)
	}

	if err := s.SetItem("k", "v1"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := s.GetItem("k")
	if err != nil || !ok || v != "v1" {
		t.Errorf("GetItem(k) = %q ok=%v err=%v, want 'v1'", v, ok, err)
	}

	// Upsert replaces the value.
	if err := s.SetItem("k", "v2"); err != nil {
		t.Fatalf("SetItem update: %v", err)
	}
	v, _, _ = s.GetItem("k")
	if v != "v2" {
		t.Errorf("after upsert got %q, want 'v2'", v)
	}
}

func TestSQLiteStoreFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.db")
	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore(%s): %v", path, err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.SetItem("k", "v"); err != nil {
		t.Fatalf("SetItem: %v", err)
	}
	v, ok, err := s.GetItem("k")
	if err != nil || !ok || v != "v" {
		t.Errorf("GetItem = %q ok=%v err=%v, want 'v'", v, ok, err)
	}
}
