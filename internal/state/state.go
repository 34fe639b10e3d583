// Package state owns the start-page aggregate and its mapping onto store keys.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/starford/speeddial/internal/kvstore"
	"github.com/starford/speeddial/internal/models"
)

// Persisted keys. The note is owned outside the four-entity aggregate.
const (
	KeySettings     = "speeddial_settings"
	KeyTiles        = "speeddial_tiles"
	KeyPages        = "speeddial_pages"
	KeyActivePageID = "speeddial_active_page"
	KeyNote         = "speeddial_quicknote"
)

// State is the aggregate of everything the start page persists as a unit.
type State struct {
	Settings     models.Settings `json:"settings"`
	Pages        []models.Page   `json:"pages"`
	Tiles        []models.Tile   `json:"tiles"`
	ActivePageID string          `json:"activePageId"`
}

// Default returns the compiled-in first-run state.
func Default() State {
	pages := models.DefaultPages()
	return State{
		Settings:     models.DefaultSettings(),
		Pages:        pages,
		Tiles:        models.DefaultTiles(),
		ActivePageID: pages[0].ID,
	}
}

// Clone returns a deep copy of s.
func (s State) Clone() State {
	return State{
		Settings:     s.Settings.Clone(),
		Pages:        append([]models.Page(nil), s.Pages...),
		Tiles:        append([]models.Tile(nil), s.Tiles...),
		ActivePageID: s.ActivePageID,
	}
}

// HasPage reports whether id names a page in s.
func (s State) HasPage(id string) bool {
	return s.PageIndex(id) >= 0
}

// PageIndex returns the index of page id, or -1.
func (s State) PageIndex(id string) int {
	for i, p := range s.Pages {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// TileIndex returns the index of tile id, or -1.
func (s State) TileIndex(id string) int {
	for i, t := range s.Tiles {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// FixActivePage points ActivePageID at the first page when its target is gone.
func (s *State) FixActivePage() {
	if len(s.Pages) > 0 && !s.HasPage(s.ActivePageID) {
		s.ActivePageID = s.Pages[0].ID
	}
}

// Load reads each key independently. A key that is absent, unreadable or
// unparsable falls back to its default without affecting the other keys.
func Load(ctx context.Context, store kvstore.Store, logger *slog.Logger) State {
	def := Default()
	out := def

	var rawSettings json.RawMessage
	if loadJSON(ctx, store, logger, KeySettings, &rawSettings) {
		settings, err := models.DecodeSettings(rawSettings)
		if err != nil {
			logger.Warn("state: corrupt value, using default", slog.String("key", KeySettings), slog.String("error", err.Error()))
		} else {
			out.Settings = settings
		}
	}

	var tiles []models.Tile
	if loadJSON(ctx, store, logger, KeyTiles, &tiles) {
		if tiles == nil {
			tiles = []models.Tile{}
		}
		out.Tiles = tiles
	}

	var pages []models.Page
	if loadJSON(ctx, store, logger, KeyPages, &pages) {
		if len(pages) == 0 {
			logger.Warn("state: stored page list empty, using defaults", slog.String("key", KeyPages))
		} else {
			out.Pages = pages
		}
	}

	active, ok, err := store.Load(ctx, KeyActivePageID)
	switch {
	case err != nil:
		logger.Warn("state: load failed", slog.String("key", KeyActivePageID), slog.String("error", err.Error()))
	case ok:
		out.ActivePageID = active
	}
	out.FixActivePage()

	return out
}

// loadJSON decodes key into target and reports whether it did.
func loadJSON(ctx context.Context, store kvstore.Store, logger *slog.Logger, key string, target any) bool {
	raw, ok, err := store.Load(ctx, key)
	if err != nil {
		logger.Warn("state: load failed", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal([]byte(raw), target); err != nil {
		logger.Warn("state: corrupt value, using default", slog.String("key", key), slog.String("error", err.Error()))
		return false
	}
	return true
}

// Save writes all four keys. It stops at the first failure; keys written
// before it keep their new values and the caller's in-memory state is not
// rolled back.
func Save(ctx context.Context, store kvstore.Store, s State) error {
	values := []struct {
		key string
		v   any
	}{
		{KeySettings, s.Settings},
		{KeyTiles, nonNil(s.Tiles)},
		{KeyPages, nonNil(s.Pages)},
	}
	for _, kv := range values {
		data, err := json.Marshal(kv.v)
		if err != nil {
			return fmt.Errorf("state: encode %s: %w", kv.key, err)
		}
		if err := store.Save(ctx, kv.key, string(data)); err != nil {
			return fmt.Errorf("state: persist %s: %w", kv.key, err)
		}
	}
	if err := store.Save(ctx, KeyActivePageID, s.ActivePageID); err != nil {
		return fmt.Errorf("state: persist %s: %w", KeyActivePageID, err)
	}
	return nil
}

// LoadNote returns the free-text note, or "" when none is stored.
func LoadNote(ctx context.Context, store kvstore.Store) (string, error) {
	v, _, err := store.Load(ctx, KeyNote)
	return v, err
}

// SaveNote persists the free-text note.
func SaveNote(ctx context.Context, store kvstore.Store, text string) error {
	if err := store.Save(ctx, KeyNote, text); err != nil {
		return fmt.Errorf("state: persist %s: %w", KeyNote, err)
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
