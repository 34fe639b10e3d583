package api

import (
	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/weather"
)

// MoveRequest is the body of the reorder endpoints.
type MoveRequest struct {
	OldIndex *int `json:"oldIndex"`
	NewIndex *int `json:"newIndex"`
}

// NameRequest is the body of page create and rename.
type NameRequest struct {
	Name string `json:"name"`
}

// ActivePageRequest selects the displayed page.
type ActivePageRequest struct {
	ID string `json:"id"`
}

// NoteRequest replaces the quick note.
type NoteRequest struct {
	Text string `json:"text"`
}

// NoteResponse is the quick note payload.
type NoteResponse struct {
	Text string `json:"text"`
}

// SearchRequest starts a debounced city search.
type SearchRequest struct {
	Query string `json:"q"`
}

// SearchAccepted acknowledges a search; results arrive as weather.search events.
type SearchAccepted struct {
	Seq uint64 `json:"seq"`
}

// TileListResponse lists the tiles of one page.
type TileListResponse struct {
	PageID string        `json:"pageId"`
	Tiles  []models.Tile `json:"tiles"`
}

// PageListResponse lists pages and the active page.
type PageListResponse struct {
	Pages        []models.Page `json:"pages"`
	ActivePageID string        `json:"activePageId"`
}

// WeatherResponse carries the latest cached reports.
type WeatherResponse struct {
	Reports   []weather.Report `json:"reports"`
	FetchedAt string           `json:"fetchedAt,omitempty"`
}
