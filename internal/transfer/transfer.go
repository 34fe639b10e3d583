// Package transfer encodes the native backup document and decodes native and
// legacy (Speed Dial 2) exports into start-page entities.
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/speeddial/internal/apperr"
	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/reorder"
)

// Document is the native backup format. A nil field was absent from the input.
type Document struct {
	Settings *models.Settings `json:"settings"`
	Tiles    []models.Tile    `json:"tiles"`
	Pages    []models.Page    `json:"pages"`
}

// Export serializes the given state into a native backup document.
func Export(settings models.Settings, tiles []models.Tile, pages []models.Page) ([]byte, error) {
	doc := Document{Settings: &settings, Tiles: tiles, Pages: pages}
	if doc.Tiles == nil {
		doc.Tiles = []models.Tile{}
	}
	if doc.Pages == nil {
		doc.Pages = []models.Page{}
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("transfer: encode: %w", err)
	}
	return data, nil
}

type wireDocument struct {
	Settings json.RawMessage `json:"settings"`
	Tiles    []models.Tile   `json:"tiles"`
	Pages    []models.Page   `json:"pages"`
}

// ParseNative decodes a native document. Settings present in the document are
// decoded over the defaults and normalized.
func ParseNative(data []byte) (Document, error) {
	if err := checkShape(nativeOnce, data); err != nil {
		return Document{}, err
	}
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return Document{}, fmt.Errorf("%w: %v", apperr.ErrImport, err)
	}
	doc := Document{Tiles: w.Tiles, Pages: w.Pages}
	if raw := bytes.TrimSpace(w.Settings); len(raw) > 0 && !bytes.Equal(raw, []byte("null")) {
		s, err := models.DecodeSettings(raw)
		if err != nil {
			return Document{}, fmt.Errorf("%w: settings: %v", apperr.ErrImport, err)
		}
		doc.Settings = &s
	}
	return doc, nil
}

// Migration is the native projection of a legacy export.
type Migration struct {
	Pages []models.Page
	Tiles []models.Tile
}

type legacyDocument struct {
	Groups []legacyGroup `json:"groups"`
	Dials  []legacyDial  `json:"dials"`
}

type legacyGroup struct {
	ID    models.FlexID `json:"id"`
	Title string        `json:"title"`
}

type legacyDial struct {
	ID        models.FlexID `json:"id"`
	Title     string        `json:"title"`
	URL       string        `json:"url"`
	Thumbnail string        `json:"thumbnail"`
	Position  *float64      `json:"position"`
	IDGroup   models.FlexID `json:"idgroup"`
}

// ParseLegacy projects a legacy export onto pages and tiles. Groups become
// pages and dials become tiles; imported positions are renumbered per page so
// each page starts out dense.
func ParseLegacy(data []byte) (Migration, error) {
	if err := checkShape(legacyOnce, data); err != nil {
		return Migration{}, err
	}
	var doc legacyDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return Migration{}, fmt.Errorf("%w: %v", apperr.ErrImport, err)
	}

	var m Migration
	for _, g := range doc.Groups {
		id := string(g.ID)
		if id == "" {
			id = uuid.NewString()
		}
		m.Pages = append(m.Pages, models.Page{ID: id, Name: g.Title})
	}

	tiles := make([]models.Tile, 0, len(doc.Dials))
	for _, d := range doc.Dials {
		id := string(d.ID)
		if id == "" || id == "0" {
			id = uuid.NewString()
		}
		pageID := string(d.IDGroup)
		if pageID == "" && len(m.Pages) > 0 {
			pageID = m.Pages[0].ID
		}
		pos := 0
		if d.Position != nil {
			pos = int(*d.Position)
		}
		tiles = append(tiles, models.Tile{
			ID:       id,
			Title:    d.Title,
			URL:      d.URL,
			ImageURL: d.Thumbnail,
			Position: pos,
			PageID:   pageID,
		})
	}
	if len(tiles) > 0 {
		m.Tiles = RenumberPages(tiles)
	}
	return m, nil
}

// RenumberPages returns tiles grouped by page (in order of first appearance),
// each page stably sorted by position and renumbered densely.
func RenumberPages(tiles []models.Tile) []models.Tile {
	var order []string
	seen := map[string]bool{}
	for _, t := range tiles {
		if !seen[t.PageID] {
			seen[t.PageID] = true
			order = append(order, t.PageID)
		}
	}
	out := make([]models.Tile, 0, len(tiles))
	for _, pageID := range order {
		page := reorder.OnPage(tiles, pageID)
		reorder.Renumber(page)
		out = append(out, page...)
	}
	return out
}

// IsLegacy reports whether data looks like a legacy export rather than a native one.
func IsLegacy(data []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return false
	}
	_, groups := probe["groups"]
	_, dials := probe["dials"]
	return groups || dials
}
