// Package apperr holds the error taxonomy shared by the service and its transports.
package apperr

import "errors"

var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConstraint = errors.New("constraint violation")
	ErrImport     = errors.New("invalid import document")

	// Store failures. The in-memory mutation that triggered the write is kept.
	ErrQuotaExceeded    = errors.New("storage quota exceeded")
	ErrStoreUnavailable = errors.New("storage unavailable")
)

// IsStoreError reports whether err came from a failed persistence write.
func IsStoreError(err error) bool {
	return errors.Is(err, ErrQuotaExceeded) || errors.Is(err, ErrStoreUnavailable)
}
