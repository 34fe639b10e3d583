package kvstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"syscall"

	"github.com/starford/speeddial/internal/apperr"
)

const fsSuffix = ".val"

// FS implements Store with one file per key under a root directory.
type FS struct {
	root  string // absolute path
	quota int64
}

// NewFS creates an FS store rooted at dir, creating it if needed.
func NewFS(dir string, quota int64) (*FS, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("kvstore: resolve root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("kvstore: mkdir root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("kvstore: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("kvstore: root is not a directory: %s", abs)
	}
	return &FS{root: abs, quota: quota}, nil
}

func (f *FS) path(key string) string {
	return filepath.Join(f.root, key+fsSuffix)
}

func (f *FS) Load(_ context.Context, key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	data, err := os.ReadFile(f.path(key))
	if errors.Is(err, os.ErrNotExist) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("kvstore: read %s: %w", key, classifyIO(err))
	}
	return string(data), true, nil
}

// Save atomically writes the value: tmp file → fsync → rename.
func (f *FS) Save(_ context.Context, key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if f.quota > 0 {
		others, err := f.usageExcept(key)
		if err != nil {
			return err
		}
		if err := checkQuota(f.quota, others, key, value); err != nil {
			return err
		}
	}

	tmp, err := os.CreateTemp(f.root, ".speeddial-tmp-*")
	if err != nil {
		return fmt.Errorf("kvstore: create temp: %w", classifyIO(err))
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.WriteString(value); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", classifyIO(err))
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("kvstore: fsync: %w", classifyIO(err))
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("kvstore: close temp: %w", classifyIO(err))
	}
	if err := os.Rename(tmpName, f.path(key)); err != nil {
		return fmt.Errorf("kvstore: rename: %w", classifyIO(err))
	}
	success = true
	return nil
}

func (f *FS) Delete(_ context.Context, key string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if err := os.Remove(f.path(key)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("kvstore: delete %s: %w", key, classifyIO(err))
	}
	return nil
}

func (f *FS) Clear(_ context.Context) error {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return fmt.Errorf("kvstore: clear: %w", classifyIO(err))
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), fsSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(f.root, e.Name())); err != nil {
			return fmt.Errorf("kvstore: clear %s: %w", e.Name(), classifyIO(err))
		}
	}
	return nil
}

func (f *FS) Keys(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.root)
	if err != nil {
		return nil, fmt.Errorf("kvstore: keys: %w", classifyIO(err))
	}
	var out []string
	for _, e := range entries {
		name, ok := strings.CutSuffix(e.Name(), fsSuffix)
		if e.IsDir() || !ok || !keyRe.MatchString(name) {
			continue
		}
		out = append(out, name)
	}
	slices.Sort(out)
	return out, nil
}

func (f *FS) Close() error { return nil }

func (f *FS) usageExcept(key string) (int64, error) {
	var total int64
	err := filepath.WalkDir(f.root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != f.root {
				return filepath.SkipDir
			}
			return nil
		}
		name := d.Name()
		if !strings.HasSuffix(name, fsSuffix) || name == key+fsSuffix {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("kvstore: usage: %w", classifyIO(err))
	}
	return total, nil
}

func classifyIO(err error) error {
	if errors.Is(err, syscall.ENOSPC) {
		return fmt.Errorf("%w: %v", apperr.ErrQuotaExceeded, err)
	}
	return fmt.Errorf("%w: %v", apperr.ErrStoreUnavailable, err)
}
