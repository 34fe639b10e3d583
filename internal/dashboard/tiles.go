package dashboard

import (
	"context"
	"sort"
	"strings"

	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/reorder"
)

// TileInput carries the fields of a new tile. Title and ImageURL are optional.
type TileInput struct {
	URL      string `json:"url"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

// TilePatch names the tile fields to change; nil fields are left alone.
type TilePatch struct {
	Title    *string `json:"title,omitempty"`
	URL      *string `json:"url,omitempty"`
	ImageURL *string `json:"imageUrl,omitempty"`
	PageID   *string `json:"pageId,omitempty"`
}

// CreateTile appends a tile to the end of pageID.
func (s *Service) CreateTile(ctx context.Context, pageID string, in TileInput) (models.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	if pageID == "" {
		pageID = st.ActivePageID
	}
	if !st.HasPage(pageID) {
		return models.Tile{}, notFound("page", pageID)
	}
	u, err := models.NormalizeURL(in.URL)
	if err != nil {
		return models.Tile{}, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = models.DeriveTitle(u)
	}

	tile := models.Tile{
		ID:       s.newID(),
		Title:    title,
		URL:      u,
		ImageURL: strings.TrimSpace(in.ImageURL),
		Position: countOnPage(st.Tiles, pageID),
		PageID:   pageID,
	}
	st.Tiles = append(st.Tiles, tile)
	return tile, s.commit(ctx, EventTileCreated, tile.ID)
}

// UpdateTile merges patch into tile id. Moving a tile to another page appends
// it to the end of the target and closes the gap it leaves behind.
func (s *Service) UpdateTile(ctx context.Context, id string, patch TilePatch) (models.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	idx := st.TileIndex(id)
	if idx < 0 {
		return models.Tile{}, notFound("tile", id)
	}
	next := st.Tiles[idx]

	if patch.URL != nil {
		u, err := models.NormalizeURL(*patch.URL)
		if err != nil {
			return models.Tile{}, err
		}
		next.URL = u
	}
	if patch.Title != nil {
		next.Title = strings.TrimSpace(*patch.Title)
		if next.Title == "" {
			next.Title = models.DeriveTitle(next.URL)
		}
	}
	if patch.ImageURL != nil {
		next.ImageURL = strings.TrimSpace(*patch.ImageURL)
	}

	from := next.PageID
	if patch.PageID != nil && *patch.PageID != from {
		if !st.HasPage(*patch.PageID) {
			return models.Tile{}, notFound("page", *patch.PageID)
		}
		next.PageID = *patch.PageID
		next.Position = countOnPage(st.Tiles, next.PageID)
	}

	st.Tiles[idx] = next
	if next.PageID != from {
		renumberPage(st.Tiles, from)
	}
	return next, s.commit(ctx, EventTileUpdated, id)
}

// DeleteTile removes tile id and renumbers the remaining tiles on its page.
func (s *Service) DeleteTile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	idx := st.TileIndex(id)
	if idx < 0 {
		return notFound("tile", id)
	}
	pageID := st.Tiles[idx].PageID
	st.Tiles = append(st.Tiles[:idx], st.Tiles[idx+1:]...)
	renumberPage(st.Tiles, pageID)
	return s.commit(ctx, EventTileDeleted, id)
}

// ReorderTiles moves the tile at oldIndex on pageID to newIndex and returns
// the page's tiles in their new order.
func (s *Service) ReorderTiles(ctx context.Context, pageID string, oldIndex, newIndex int) ([]models.Tile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	if !st.HasPage(pageID) {
		return nil, notFound("page", pageID)
	}
	page := reorder.OnPage(st.Tiles, pageID)
	if !reorder.InRange(oldIndex, len(page)) || !reorder.InRange(newIndex, len(page)) {
		return nil, invalid("move %d -> %d out of range for %d tiles", oldIndex, newIndex, len(page))
	}
	page = reorder.Move(page, oldIndex, newIndex)
	reorder.Renumber(page)
	st.Tiles = reorder.Splice(st.Tiles, pageID, page)

	out := append([]models.Tile(nil), page...)
	return out, s.commit(ctx, EventTilesReordered, pageID)
}

func countOnPage(tiles []models.Tile, pageID string) int {
	n := 0
	for _, t := range tiles {
		if t.PageID == pageID {
			n++
		}
	}
	return n
}

// renumberPage makes positions on pageID dense while keeping every tile at its
// slice index. Relative order by current position is preserved.
func renumberPage(tiles []models.Tile, pageID string) {
	var idx []int
	for i, t := range tiles {
		if t.PageID == pageID {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return tiles[idx[a]].Position < tiles[idx[b]].Position
	})
	for pos, i := range idx {
		tiles[i].Position = pos
	}
}

// healPositions renumbers every page whose positions are not dense.
func healPositions(tiles []models.Tile) {
	seen := map[string]bool{}
	for _, t := range tiles {
		if seen[t.PageID] {
			continue
		}
		seen[t.PageID] = true
		if !reorder.Dense(reorder.OnPage(tiles, t.PageID)) {
			renumberPage(tiles, t.PageID)
		}
	}
}
