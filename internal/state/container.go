package state

import (
	"context"
	"log/slog"

	"github.com/starford/speeddial/internal/kvstore"
)

// Container exclusively owns one State and its store. It is not safe for
// concurrent use; the mutation service serializes access.
type Container struct {
	store  kvstore.Store
	logger *slog.Logger
	cur    State
}

// NewContainer creates a container seeded with defaults. Call Initialize to
// replace them with persisted values.
func NewContainer(store kvstore.Store, logger *slog.Logger) *Container {
	if logger == nil {
		logger = slog.Default()
	}
	return &Container{store: store, logger: logger, cur: Default()}
}

// Initialize loads persisted state, falling back to defaults per key.
func (c *Container) Initialize(ctx context.Context) State {
	c.cur = Load(ctx, c.store, c.logger)
	return c.cur.Clone()
}

// Persist writes the current state. On error the in-memory state stays as is.
func (c *Container) Persist(ctx context.Context) error {
	return Save(ctx, c.store, c.cur)
}

// Current returns the live state for mutation by the owner.
func (c *Container) Current() *State {
	return &c.cur
}

// Replace swaps in a whole new state (import, reset).
func (c *Container) Replace(s State) {
	c.cur = s
}

// Store returns the backing store.
func (c *Container) Store() kvstore.Store {
	return c.store
}
