package inbox

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/starford/speeddial/internal/apperr"
	"github.com/starford/speeddial/internal/testutil"
)

const legacyDoc = `{"groups":[{"id":1,"title":"Home"}],"dials":[{"id":5,"title":"X","url":"https://x.com","position":0,"idgroup":1}]}`

type results struct {
	mu   sync.Mutex
	errs map[string]error
}

func (r *results) record(name string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.errs == nil {
		r.errs = map[string]error{}
	}
	r.errs[name] = err
}

func (r *results) get(name string) (error, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	err, ok := r.errs[name]
	return err, ok
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Fatal(msg)
}

func countFiles(t *testing.T, dir string) int {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	return len(entries)
}

func startWatch(t *testing.T, dir string, imp Importer, res *results) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Watch(ctx, dir, imp, 20*time.Millisecond, testutil.Logger(), res.record) }()
	t.Cleanup(func() {
		cancel()
		if err := <-done; err != nil {
			t.Errorf("Watch: %v", err)
		}
	})
	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		_, err := os.Stat(filepath.Join(dir, FailedDir))
		return err == nil
	}, "inbox dirs not created")
}

func TestImportsFilePresentAtStart(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "old.json"), []byte(legacyDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	svc, _ := testutil.TestService(t)
	res := &results{}
	startWatch(t, dir, svc, res)

	eventually(t, 2*time.Second, 10*time.Millisecond, func() bool {
		_, ok := res.get("old.json")
		return ok
	}, "file present at start was not handled")

	if err, _ := res.get("old.json"); err != nil {
		t.Fatalf("import error: %v", err)
	}
	if got := svc.ActivePageID(context.Background()); got != "1" {
		t.Errorf("active page = %q, want 1", got)
	}
	if n := countFiles(t, filepath.Join(dir, ProcessedDir)); n != 1 {
		t.Errorf("processed files = %d", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "old.json")); !os.IsNotExist(err) {
		t.Error("source file not moved")
	}
}

func TestImportsDroppedFile(t *testing.T) {
	dir := t.TempDir()
	svc, _ := testutil.TestService(t)
	res := &results{}
	startWatch(t, dir, svc, res)

	backup, err := svc.Export(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "backup.json"), backup, 0o644); err != nil {
		t.Fatal(err)
	}

	eventually(t, 3*time.Second, 10*time.Millisecond, func() bool {
		_, ok := res.get("backup.json")
		return ok
	}, "dropped file was not handled")
	if err, _ := res.get("backup.json"); err != nil {
		t.Errorf("import error: %v", err)
	}
}

func TestMalformedFileMovedToFailed(t *testing.T) {
	dir := t.TempDir()
	svc, _ := testutil.TestService(t)
	res := &results{}
	startWatch(t, dir, svc, res)

	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	eventually(t, 3*time.Second, 10*time.Millisecond, func() bool {
		_, ok := res.get("broken.json")
		return ok
	}, "malformed file was not handled")

	err, _ := res.get("broken.json")
	if !errors.Is(err, apperr.ErrImport) {
		t.Errorf("err = %v, want ErrImport", err)
	}
	if n := countFiles(t, filepath.Join(dir, FailedDir)); n != 1 {
		t.Errorf("failed files = %d", n)
	}
}

func TestIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	svc, _ := testutil.TestService(t)
	res := &results{}
	startWatch(t, dir, svc, res)

	for _, name := range []string{"notes.txt", ".hidden.json"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(legacyDoc), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	time.Sleep(200 * time.Millisecond)
	if _, ok := res.get("notes.txt"); ok {
		t.Error("txt file handled")
	}
	if _, ok := res.get(".hidden.json"); ok {
		t.Error("hidden file handled")
	}
	if _, err := os.Stat(filepath.Join(dir, "notes.txt")); err != nil {
		t.Error("ignored file was moved")
	}
}
