package kvstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/starford/speeddial/internal/apperr"
)

func testSQLite(t *testing.T, quota int64) *SQLite {
	t.Helper()
	f, err := os.CreateTemp("", "speeddial-kv-*.db")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	t.Cleanup(func() { os.Remove(f.Name()) })

	s, err := OpenSQLite(f.Name(), quota)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testFS(t *testing.T, quota int64) *FS {
	t.Helper()
	s, err := NewFS(t.TempDir(), quota)
	if err != nil {
		t.Fatalf("NewFS: %v", err)
	}
	return s
}

// backends runs fn against every Store implementation.
func backends(t *testing.T, quota int64, fn func(t *testing.T, s Store)) {
	t.Run("sqlite", func(t *testing.T) { fn(t, testSQLite(t, quota)) })
	t.Run("fs", func(t *testing.T) { fn(t, testFS(t, quota)) })
	t.Run("memory", func(t *testing.T) { fn(t, NewMemory(quota)) })
}

func TestSaveAndLoad(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Save(ctx, "speeddial_tiles", `[{"id":"t1"}]`); err != nil {
			t.Fatalf("Save: %v", err)
		}
		got, ok, err := s.Load(ctx, "speeddial_tiles")
		if err != nil || !ok {
			t.Fatalf("Load: ok=%v err=%v", ok, err)
		}
		if got != `[{"id":"t1"}]` {
			t.Errorf("value = %q", got)
		}
	})
}

func TestLoadAbsent(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		_, ok, err := s.Load(context.Background(), "missing")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok {
			t.Error("expected absent key")
		}
	})
}

func TestSaveOverwrites(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		ctx := context.Background()
		_ = s.Save(ctx, "k", "one")
		_ = s.Save(ctx, "k", "two")
		got, _, _ := s.Load(ctx, "k")
		if got != "two" {
			t.Errorf("value = %q, want two", got)
		}
	})
}

func TestQuotaExceededKeepsOldValue(t *testing.T) {
	backends(t, 16, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Save(ctx, "a", "12345678"); err != nil {
			t.Fatalf("Save: %v", err)
		}
		if err := s.Save(ctx, "b", "small"); err != nil {
			t.Fatalf("Save b: %v", err)
		}
		err := s.Save(ctx, "a", strings.Repeat("x", 32))
		if !errors.Is(err, apperr.ErrQuotaExceeded) {
			t.Fatalf("err = %v, want ErrQuotaExceeded", err)
		}
		got, _, _ := s.Load(ctx, "a")
		if got != "12345678" {
			t.Errorf("old value lost: %q", got)
		}
	})
}

func TestQuotaCountsReplacedValueOnce(t *testing.T) {
	backends(t, 10, func(t *testing.T, s Store) {
		ctx := context.Background()
		if err := s.Save(ctx, "a", "123456789"); err != nil {
			t.Fatalf("Save: %v", err)
		}
		// Replacing a value must not count the bytes it replaces.
		if err := s.Save(ctx, "a", "987654321"); err != nil {
			t.Fatalf("replace within quota failed: %v", err)
		}
	})
}

func TestDeleteAndClear(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		ctx := context.Background()
		_ = s.Save(ctx, "a", "1")
		_ = s.Save(ctx, "b", "2")
		if err := s.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete: %v", err)
		}
		if err := s.Delete(ctx, "a"); err != nil {
			t.Fatalf("Delete absent: %v", err)
		}
		if _, ok, _ := s.Load(ctx, "a"); ok {
			t.Error("a should be gone")
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, ok, _ := s.Load(ctx, "b"); ok {
			t.Error("b should be gone after Clear")
		}
	})
}

func TestInvalidKeyRejected(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		err := s.Save(context.Background(), "../escape", "x")
		if !errors.Is(err, apperr.ErrStoreUnavailable) {
			t.Errorf("err = %v, want ErrStoreUnavailable", err)
		}
	})
}

func TestClosedMemoryUnavailable(t *testing.T) {
	m := NewMemory(0)
	_ = m.Close()
	err := m.Save(context.Background(), "k", "v")
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestClosedSQLiteUnavailable(t *testing.T) {
	s := testSQLite(t, 0)
	_ = s.Close()
	err := s.Save(context.Background(), "k", "v")
	if !errors.Is(err, apperr.ErrStoreUnavailable) {
		t.Errorf("err = %v, want ErrStoreUnavailable", err)
	}
}

func TestKeysSorted(t *testing.T) {
	backends(t, 0, func(t *testing.T, s Store) {
		ctx := context.Background()
		_ = s.Save(ctx, "b", "2")
		_ = s.Save(ctx, "a.b", "3")
		_ = s.Save(ctx, "a", "1")
		keys, err := s.Keys(ctx)
		if err != nil {
			t.Fatalf("Keys: %v", err)
		}
		if want := []string{"a", "a.b", "b"}; !slices.Equal(keys, want) {
			t.Errorf("keys = %v, want %v", keys, want)
		}
	})
}

func TestFSAtomicWriteLeavesNoTemp(t *testing.T) {
	s := testFS(t, 0)
	ctx := context.Background()
	_ = s.Save(ctx, "atomic", "original")
	if err := s.Save(ctx, "atomic", "updated"); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, _, _ := s.Load(ctx, "atomic")
	if got != "updated" {
		t.Errorf("value = %q", got)
	}
	matches, _ := filepath.Glob(filepath.Join(s.root, ".speeddial-tmp-*"))
	if len(matches) != 0 {
		t.Errorf("leftover temp files: %v", matches)
	}
}

func TestNewFS_FileNotDir(t *testing.T) {
	f, _ := os.CreateTemp("", "speeddial-test-*")
	_ = f.Close()
	defer os.Remove(f.Name())
	if _, err := NewFS(f.Name(), 0); err == nil {
		t.Error("expected error when root is a file")
	}
}
