package dashboard

import (
	"fmt"

	"github.com/starford/speeddial/internal/apperr"
)

func notFound(kind, id string) error {
	return fmt.Errorf("%s %q: %w", kind, id, apperr.ErrNotFound)
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrValidation, fmt.Sprintf(format, args...))
}

func constraint(format string, args ...any) error {
	return fmt.Errorf("%w: %s", apperr.ErrConstraint, fmt.Sprintf(format, args...))
}
