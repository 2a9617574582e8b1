package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/whatid/internal/what"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestConfig builds a configuration with one non-identity key.
func createTestConfig(t *testing.T, name string, n int) *what.Config {
	t.Helper()
	c, err := what.New(name, map[string]any{"n": n, "rate": 0.5, "seed": 7}, what.WithNonIDKeys("seed"))
	if err != nil {
		t.Fatalf("what.New() failed: %v", err)
	}
	return c
}
