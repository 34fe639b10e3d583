// Package dashboard is the mutation API over the start-page state.
//
// Every operation validates its input, mutates the owned state, persists all
// keys and publishes a change event. Validation, not-found and constraint
// failures leave state untouched. Store failures keep the mutation and are
// returned alongside the result so the caller can tell the user that the
// change is not durable.
package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/starford/speeddial/internal/kvstore"
	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/reorder"
	"github.com/starford/speeddial/internal/state"
)

// Change event kinds passed to a Notifier.
const (
	EventTileCreated     = "tile.created"
	EventTileUpdated     = "tile.updated"
	EventTileDeleted     = "tile.deleted"
	EventTilesReordered  = "tiles.reordered"
	EventPageCreated     = "page.created"
	EventPageRenamed     = "page.renamed"
	EventPageDeleted     = "page.deleted"
	EventPagesReordered  = "pages.reordered"
	EventPageActivated   = "page.activated"
	EventSettingsUpdated = "settings.updated"
	EventNoteUpdated     = "note.updated"
	EventStateImported   = "state.imported"
	EventStateReset      = "state.reset"
)

// Notifier is called after every committed mutation, including ones whose
// persistence failed. id names the affected entity when there is one.
type Notifier func(kind, id string)

// Option configures a Service.
type Option func(*Service)

// WithNotifier registers a change callback.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notify = n }
}

// WithIDGenerator overrides fresh id generation (tests).
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) { s.newID = gen }
}

// Service owns one state container and serializes every operation on it.
type Service struct {
	mu     sync.Mutex
	c      *state.Container
	logger *slog.Logger
	notify Notifier
	newID  func() string
	note   string
}

// NewService loads persisted state from store (defaults per missing key) and
// returns a service owning it.
func NewService(ctx context.Context, store kvstore.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		c:      state.NewContainer(store, logger),
		logger: logger,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.c.Initialize(ctx)
	note, err := state.LoadNote(ctx, store)
	if err != nil {
		logger.Warn("note load failed", slog.String("error", err.Error()))
	}
	s.note = note
	return s
}

// Snapshot returns a deep copy of the current state.
func (s *Service) Snapshot(_ context.Context) state.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Current().Clone()
}

// Settings returns the current settings.
func (s *Service) Settings(_ context.Context) models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Current().Settings.Clone()
}

// Pages returns the page sequence.
func (s *Service) Pages(_ context.Context) []models.Page {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Page(nil), s.c.Current().Pages...)
}

// ActivePageID returns the id of the displayed page.
func (s *Service) ActivePageID(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.c.Current().ActivePageID
}

// Tiles returns the tiles on pageID sorted by position. An empty pageID means
// the active page.
func (s *Service) Tiles(_ context.Context, pageID string) ([]models.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.c.Current()
	if pageID == "" {
		pageID = st.ActivePageID
	}
	if !st.HasPage(pageID) {
		return nil, notFound("page", pageID)
	}
	return nonNilSlice(reorder.OnPage(st.Tiles, pageID)), nil
}

// commit persists the current state and publishes kind. The mutation stays in
// memory when persisting fails; the store error is returned.
func (s *Service) commit(ctx context.Context, kind, id string) error {
	err := s.c.Persist(ctx)
	if err != nil {
		s.logger.Error("persist failed",
			slog.String("event", kind),
			slog.String("id", id),
			slog.String("error", err.Error()))
	}
	if s.notify != nil {
		s.notify(kind, id)
	}
	return err
}

func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
