package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/state"
	"github.com/starford/speeddial/internal/transfer"
)

// Note returns the free-text note.
func (s *Service) Note(_ context.Context) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.note
}

// SetNote replaces the free-text note. It is persisted on its own key.
func (s *Service) SetNote(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.note = text
	err := state.SaveNote(ctx, s.c.Store(), text)
	if err != nil {
		s.logger.Error("persist note failed", slog.String("error", err.Error()))
	}
	if s.notify != nil {
		s.notify(EventNoteUpdated, "")
	}
	return err
}

// Reset wipes the store and re-seeds the compiled-in defaults.
func (s *Service) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.c.Store().Clear(ctx); err != nil {
		return fmt.Errorf("dashboard: reset: %w", err)
	}
	s.c.Replace(state.Default())
	s.note = ""
	return s.commit(ctx, EventStateReset, "")
}

// Export returns the native backup document for the current state.
func (s *Service) Export(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	return transfer.Export(st.Settings, st.Tiles, st.Pages)
}

// ImportNative applies a native backup. Each top-level field absent from the
// document keeps its current value; an empty page list is ignored. The active
// page becomes the first page afterwards.
func (s *Service) ImportNative(ctx context.Context, data []byte) error {
	doc, err := transfer.ParseNative(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.c.Current().Clone()
	if doc.Settings != nil {
		next.Settings = *doc.Settings
	}
	if len(doc.Pages) > 0 {
		next.Pages = doc.Pages
	}
	if doc.Tiles != nil {
		next.Tiles = doc.Tiles
		healPositions(next.Tiles)
	}
	return s.replace(ctx, next)
}

// ImportLegacy migrates a legacy export. Groups replace the pages and dials
// replace the tiles, each only when the document has at least one.
func (s *Service) ImportLegacy(ctx context.Context, data []byte) error {
	m, err := transfer.ParseLegacy(data)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.c.Current().Clone()
	if len(m.Pages) > 0 {
		next.Pages = m.Pages
	}
	if len(m.Tiles) > 0 {
		next.Tiles = m.Tiles
	}
	return s.replace(ctx, next)
}

// Import detects the document format and applies it.
func (s *Service) Import(ctx context.Context, data []byte) error {
	if transfer.IsLegacy(data) {
		return s.ImportLegacy(ctx, data)
	}
	return s.ImportNative(ctx, data)
}

func (s *Service) replace(ctx context.Context, next state.State) error {
	if next.Tiles == nil {
		next.Tiles = []models.Tile{}
	}
	next.ActivePageID = next.Pages[0].ID
	s.c.Replace(next)
	return s.commit(ctx, EventStateImported, "")
}
