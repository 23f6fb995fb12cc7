package sqlite

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/leaselens/leaselens/internal/kv"
	"github.com/leaselens/leaselens/internal/kv/kvtest"
)

func newTestStore(t *testing.T) kv.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "kv.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	s, err := NewWithDB(db)
	if err != nil {
		t.Fatalf("store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSqliteStore_Compliance(t *testing.T) {
	kvtest.Run(t, newTestStore)
}

func TestSqliteStore_SchemaIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	for i := 0; i < 2; i++ {
		db, err := sql.Open("sqlite", "file:"+path)
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		s, err := NewWithDB(db)
		if err != nil {
			t.Fatalf("schema apply #%d: %v", i+1, err)
		}
		_ = s.Close()
	}
}
