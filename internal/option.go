package internal

import (
	"io"

	"github.com/starford/speeddial/internal/kvstore"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config *Config
	store  kvstore.Store
	stdout io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithStore replaces the configured store backend. The caller keeps ownership
// and closes it.
func WithStore(store kvstore.Store) Option {
	return func(a *application) {
		a.store = store
	}
}

// WithLogOutput sets where log records are written in addition to the
// configured log file. Defaults to os.Stdout.
func WithLogOutput(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}
