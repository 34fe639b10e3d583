package kvstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/starford/speeddial/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// SQLite implements Store backed by a single SQLite table.
type SQLite struct {
	conn  *sql.DB
	quota int64
}

// OpenSQLite opens (or creates) the database at dsn and applies the schema.
func OpenSQLite(dsn string, quota int64) (*SQLite, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("kvstore: open db: %w", err)
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("kvstore: apply schema: %w", err)
	}
	return &SQLite{conn: conn, quota: quota}, nil
}

func (s *SQLite) Load(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: load %s: %w", key, classify(err))
	}
	return v, true, nil
}

// Save upserts key inside a transaction so a rejected write leaves the old value.
func (s *SQLite) Save(ctx context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("kvstore: begin tx: %w", classify(err))
	}
	defer tx.Rollback() //nolint:errcheck // best-effort on failure path

	if s.quota > 0 {
		var others int64
		err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(SUM(length(CAST(value AS BLOB))), 0) FROM kv WHERE key <> ?`, key).Scan(&others)
		if err != nil {
			return fmt.Errorf("kvstore: usage: %w", classify(err))
		}
		if err := checkQuota(s.quota, others, key, value); err != nil {
			return err
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("kvstore: save %s: %w", key, classify(err))
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("kvstore: commit %s: %w", key, classify(err))
	}
	return nil
}

func (s *SQLite) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("kvstore: delete %s: %w", key, classify(err))
	}
	return nil
}

func (s *SQLite) Clear(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, `DELETE FROM kv`); err != nil {
		return fmt.Errorf("kvstore: clear: %w", classify(err))
	}
	return nil
}

// Keys returns every stored key in ascending order.
func (s *SQLite) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT key FROM kv ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys: %w", classify(err))
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		out = append(out, k)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.conn.Close()
}

// classify maps driver errors onto the store taxonomy while keeping the cause.
func classify(err error) error {
	var se sqlite3.Error
	if errors.As(err, &se) && se.Code == sqlite3.ErrFull {
		return fmt.Errorf("%w: %v", apperr.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
}
