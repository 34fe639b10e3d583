// Package testutil provides shared test helpers for stores and services.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/starford/speeddial/internal/dashboard"
	"github.com/starford/speeddial/internal/kvstore"
)

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestDB opens a SQLite store in a temp directory that is closed on cleanup.
func TestDB(t *testing.T, quota int64) *kvstore.SQLite {
	t.Helper()
	store, err := kvstore.OpenSQLite(filepath.Join(t.TempDir(), "speeddial-test.db"), quota)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// TestService creates a service over an unlimited in-memory store.
func TestService(t *testing.T, opts ...dashboard.Option) (*dashboard.Service, *kvstore.Memory) {
	t.Helper()
	store := kvstore.NewMemory(0)
	return dashboard.NewService(context.Background(), store, Logger(), opts...), store
}
