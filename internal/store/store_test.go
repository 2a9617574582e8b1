package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_OpensExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s1, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() failed: %v", err)
	}
	if err := s1.RegisterNickname(t.Context(), "base", "rfc(n=1)"); err != nil {
		t.Fatalf("RegisterNickname() failed: %v", err)
	}
	s1.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("second Open() failed: %v", err)
	}
	defer s2.Close()

	id, ok, err := s2.NicknameToID(t.Context(), "base")
	if err != nil || !ok {
		t.Fatalf("NicknameToID() = %q, %v, %v after reopen", id, ok, err)
	}
	if id != "rfc(n=1)" {
		t.Errorf("NicknameToID() = %q, want %q", id, "rfc(n=1)")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	var name string
	err = s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='nicknames'").Scan(&name)
	if err != nil {
		t.Errorf("nicknames table not found after idempotent opens: %v", err)
	}
}

func TestOpen_InvalidPath(t *testing.T) {
	_, err := Open("/nonexistent/dir/test.db")
	if err == nil {
		t.Error("expected error for invalid path, got nil")
	}
}

func TestClose_NilDB(t *testing.T) {
	s := &Store{db: nil}
	if err := s.Close(); err != nil {
		t.Errorf("Close() on nil db should not error: %v", err)
	}
}

func TestClose_MultipleCalls(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Errorf("first Close() failed: %v", err)
	}
	_ = s.Close()
}

// Pragma tests

func TestPragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name, want string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.verifyPragma(tt.name, tt.want); err != nil {
				t.Error(err)
			}
		})
	}
}

// Schema tests

func TestSchema_NicknamesTable(t *testing.T) {
	s := createTestStore(t)

	columns := getTableColumns(t, s.db, "nicknames")
	expected := []string{"nickname", "whatid", "uuid", "full_id", "non_id_keys", "seq"}
	for _, col := range expected {
		if !slices.Contains(columns, col) {
			t.Errorf("nicknames table missing column %q", col)
		}
	}
}

func TestConstraint_WhatIDUnique(t *testing.T) {
	s := createTestStore(t)

	_, err := s.db.Exec(`INSERT INTO nicknames (nickname, whatid, uuid, seq) VALUES ('a', 'x()', 'u', 1)`)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	_, err = s.db.Exec(`INSERT INTO nicknames (nickname, whatid, uuid, seq) VALUES ('b', 'x()', 'u', 2)`)
	if err == nil {
		t.Error("expected UNIQUE violation for a second nickname on the same id")
	}
}

// Schema version tests

func TestSchemaVersion_Stamped(t *testing.T) {
	s := createTestStore(t)

	if got := schemaVersionOf(t, s.db); got != schemaVersion {
		t.Errorf("user_version = %d, want %d", got, schemaVersion)
	}
}

func TestSchemaVersion_ReopenKeepsBindings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		if i == 0 {
			if err := s.RegisterNickname(t.Context(), "a", "x()"); err != nil {
				t.Fatalf("RegisterNickname() failed: %v", err)
			}
		}
		if got := schemaVersionOf(t, s.db); got != schemaVersion {
			t.Errorf("iteration %d: user_version = %d, want %d", i, got, schemaVersion)
		}
		all, err := s.AllNicknames(t.Context())
		if err != nil {
			t.Fatalf("AllNicknames() failed: %v", err)
		}
		if len(all) != 1 {
			t.Errorf("iteration %d: %d bindings, want 1", i, len(all))
		}
		s.Close()
	}
}

func TestSchemaVersion_RefusesNewerRegistry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion+1)); err != nil {
		t.Fatalf("failed to set user_version: %v", err)
	}
	db.Close()

	s, err := Open(path)
	if err == nil {
		s.Close()
		t.Fatal("expected Open() to refuse a newer schema")
	}
	if !strings.Contains(err.Error(), "newer than supported") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSchema_UUIDIndex(t *testing.T) {
	s := createTestStore(t)

	indexes := getTableIndexes(t, s.db, "nicknames")
	if !slices.Contains(indexes, "idx_nicknames_uuid") {
		t.Errorf("expected idx_nicknames_uuid, got indexes: %v", indexes)
	}
}

// Helper functions

// verifyPragma checks that a pragma reads back as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow("PRAGMA " + name).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}

func schemaVersionOf(t *testing.T, db *sql.DB) int {
	t.Helper()

	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		t.Fatalf("failed to get user_version: %v", err)
	}
	return version
}

func getTableColumns(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("PRAGMA table_info(" + table + ")")
	if err != nil {
		t.Fatalf("failed to get table info for %q: %v", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull, pk int
		var dfltValue any
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dfltValue, &pk); err != nil {
			t.Fatalf("failed to scan column info: %v", err)
		}
		columns = append(columns, name)
	}
	return columns
}

func getTableIndexes(t *testing.T, db *sql.DB, table string) []string {
	t.Helper()

	rows, err := db.Query("SELECT name FROM sqlite_master WHERE type='index' AND tbl_name=?", table)
	if err != nil {
		t.Fatalf("failed to get indexes for %q: %v", table, err)
	}
	defer rows.Close()

	var indexes []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("failed to scan index name: %v", err)
		}
		indexes = append(indexes, name)
	}
	return indexes
}
