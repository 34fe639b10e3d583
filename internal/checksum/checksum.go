// Package checksum derives HTTP entity tags for exported documents.
package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ETag returns a strong entity tag (quoted, truncated SHA-256) for data.
func ETag(data []byte) string {
	h := sha256.Sum256(data)
	return `"` + hex.EncodeToString(h[:16]) + `"`
}

// Matches reports whether an If-None-Match header value names etag.
// "*" matches anything; weak tags compare by their opaque part.
func Matches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
