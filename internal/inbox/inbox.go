// Package inbox imports backup and legacy export files dropped into a directory.
//
// Every *.json file that appears in the directory is imported once it has been
// quiet for the debounce interval, then moved to processed/ on success or
// failed/ otherwise.
package inbox

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	ProcessedDir = "processed"
	FailedDir    = "failed"

	// DefaultDebounce waits for writers to finish before a file is read.
	DefaultDebounce = 200 * time.Millisecond

	maxFileBytes = 10 << 20
)

// Importer applies a document in either supported format.
type Importer interface {
	Import(ctx context.Context, data []byte) error
}

// EventResult is the change-feed event type announcing a handled file.
const EventResult = "inbox.result"

// ResultCallback is called after each file is handled. err is nil on success.
type ResultCallback func(name string, err error)

// Watch imports files from dir until ctx is cancelled. Files already present
// when it starts are imported first.
func Watch(ctx context.Context, dir string, imp Importer, debounce time.Duration, logger *slog.Logger, cb ResultCallback) error {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	for _, sub := range []string{dir, filepath.Join(dir, ProcessedDir), filepath.Join(dir, FailedDir)} {
		if err := os.MkdirAll(sub, 0o755); err != nil {
			return fmt.Errorf("inbox: %w", err)
		}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("inbox: watch %s: %w", dir, err)
	}
	logger.Info("inbox: started", slog.String("dir", dir))

	existing, err := pendingFiles(dir)
	if err != nil {
		return err
	}
	for _, name := range existing {
		handle(ctx, dir, name, imp, logger, cb)
	}

	pending := map[string]struct{}{}
	var timer *time.Timer
	var timerCh <-chan time.Time
	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("inbox: stopped")
			return nil

		case <-timerCh:
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			sort.Strings(names)
			clear(pending)
			for _, name := range names {
				handle(ctx, dir, name, imp, logger, cb)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 || filepath.Dir(ev.Name) != filepath.Clean(dir) {
				continue
			}
			name := filepath.Base(ev.Name)
			if !isImportable(name) {
				continue
			}
			pending[name] = struct{}{}
			schedule()

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}

func isImportable(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".json") && !strings.HasPrefix(name, ".")
}

func pendingFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("inbox: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.Type().IsRegular() && isImportable(e.Name()) {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// handle imports one file and files it away. A file that vanished before the
// timer fired is skipped silently.
func handle(ctx context.Context, dir, name string, imp Importer, logger *slog.Logger, cb ResultCallback) {
	src := filepath.Join(dir, name)
	data, err := readLimited(src)
	if os.IsNotExist(err) {
		return
	}
	if err == nil {
		err = imp.Import(ctx, data)
	}

	dest := ProcessedDir
	if err != nil {
		dest = FailedDir
		logger.Warn("inbox: import failed", slog.String("file", name), slog.String("error", err.Error()))
	} else {
		logger.Info("inbox: imported", slog.String("file", name))
	}

	target := filepath.Join(dir, dest, time.Now().UTC().Format("20060102T150405.000")+"-"+name)
	if mvErr := os.Rename(src, target); mvErr != nil {
		logger.Error("inbox: move failed", slog.String("file", name), slog.String("error", mvErr.Error()))
	}
	if cb != nil {
		cb(name, err)
	}
}

func readLimited(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxFileBytes {
		return nil, fmt.Errorf("inbox: %s exceeds %d bytes", filepath.Base(path), maxFileBytes)
	}
	return data, nil
}
