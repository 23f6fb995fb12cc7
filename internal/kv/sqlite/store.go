package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/leaselens/leaselens/internal/kv"
)

// Store implements kv.Store on SQLite. A single table holds cache entries,
// counters, and report mappings; counters are stored as decimal text so the
// atomic upsert can CAST in place.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS kv (
    k          TEXT PRIMARY KEY,
    v          BLOB NOT NULL,
    expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS kv_expires_at ON kv (expires_at) WHERE expires_at > 0;
`

// New opens the database at path and ensures the schema.
func New(path string) (*Store, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	return NewWithDB(db)
}

// NewWithDB wires an existing connection (used by tests and the factory).
func NewWithDB(db *sql.DB) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func nowMillis() int64 { return time.Now().UnixMilli() }

func expiry(ttl time.Duration) int64 {
	if ttl <= 0 {
		return 0
	}
	return time.Now().Add(ttl).UnixMilli()
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var v []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM kv WHERE k = ?1 AND (expires_at = 0 OR expires_at > ?2)`,
		key, nowMillis()).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (k, v, expires_at) VALUES (?1, ?2, ?3)
         ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at`,
		key, value, expiry(ttl))
	return err
}

func (s *Store) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var n int64
	// An expired slot restarts at 1 with a fresh expiry; a live slot keeps
	// its original expiry so the window does not slide.
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO kv (k, v, expires_at) VALUES (?1, '1', ?2)
         ON CONFLICT(k) DO UPDATE SET
             v = CASE WHEN kv.expires_at > 0 AND kv.expires_at <= ?3
                      THEN '1'
                      ELSE CAST(CAST(kv.v AS INTEGER) + 1 AS TEXT) END,
             expires_at = CASE WHEN kv.expires_at > 0 AND kv.expires_at <= ?3
                               THEN ?2
                               ELSE kv.expires_at END
         RETURNING CAST(v AS INTEGER)`,
		key, expiry(ttl), nowMillis()).Scan(&n)
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (k, v, expires_at) VALUES (?1, ?2, ?3)
         ON CONFLICT(k) DO UPDATE SET v = excluded.v, expires_at = excluded.expires_at
             WHERE kv.expires_at > 0 AND kv.expires_at <= ?4`,
		key, value, expiry(ttl), nowMillis())
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE k = ?1`, key)
	return err
}

func (s *Store) HealthCheck(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error { return s.db.Close() }
