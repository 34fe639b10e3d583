// Package kvstore is the persistent key-value store behind the start-page state.
//
// Values are whole strings (JSON documents or plain text) written atomically per
// key. Write failures are classified as apperr.ErrQuotaExceeded when the store
// rejected the value for size reasons and apperr.ErrStoreUnavailable otherwise.
package kvstore

import (
	"context"
	"fmt"
	"regexp"

	"github.com/starford/speeddial/internal/apperr"
)

// DefaultQuota mirrors the per-origin limit of browser local storage.
const DefaultQuota int64 = 5 << 20

// Store is the interface for persisted state values.
type Store interface {
	// Load returns the value stored under key; ok is false when the key is absent.
	Load(ctx context.Context, key string) (value string, ok bool, err error)
	// Save atomically replaces the value under key.
	Save(ctx context.Context, key, value string) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	// Keys lists the stored keys in ascending order.
	Keys(ctx context.Context) ([]string, error)
	// Close releases the underlying resources.
	Close() error
}

var keyRe = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

func checkKey(key string) error {
	if !keyRe.MatchString(key) {
		return fmt.Errorf("kvstore: invalid key %q: %w", key, apperr.ErrStoreUnavailable)
	}
	return nil
}

// checkQuota rejects a write that would push the total stored bytes over quota.
// others is the byte count of every value except the one being replaced.
func checkQuota(quota, others int64, key, value string) error {
	if quota <= 0 {
		return nil
	}
	if others+int64(len(value)) > quota {
		return fmt.Errorf("kvstore: save %s (%d bytes, %d used of %d): %w",
			key, len(value), others, quota, apperr.ErrQuotaExceeded)
	}
	return nil
}
