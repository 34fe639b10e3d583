// Package reorder recomputes collection order after a drag-and-drop move.
package reorder

import (
	"fmt"
	"sort"

	"github.com/starford/speeddial/internal/models"
)

// InRange reports whether i is a valid index into a sequence of length n.
func InRange(i, n int) bool {
	return i >= 0 && i < n
}

// Move removes the element at oldIndex and reinserts it so that it ends up at
// newIndex in the resulting sequence. The slice is modified in place and
// returned. Indices out of range are a caller bug and panic.
func Move[T any](items []T, oldIndex, newIndex int) []T {
	if !InRange(oldIndex, len(items)) || !InRange(newIndex, len(items)) {
		panic(fmt.Sprintf("reorder: move %d -> %d out of range for length %d", oldIndex, newIndex, len(items)))
	}
	if oldIndex == newIndex {
		return items
	}
	moved := items[oldIndex]
	if oldIndex < newIndex {
		copy(items[oldIndex:newIndex], items[oldIndex+1:newIndex+1])
	} else {
		copy(items[newIndex+1:oldIndex+1], items[newIndex:oldIndex])
	}
	items[newIndex] = moved
	return items
}

// Renumber assigns position = index, restoring a dense 0..n-1 sequence
// regardless of the positions the tiles carried before.
func Renumber(tiles []models.Tile) {
	for i := range tiles {
		tiles[i].Position = i
	}
}

// SortByPosition orders tiles by position; ties keep their sequence order.
func SortByPosition(tiles []models.Tile) {
	sort.SliceStable(tiles, func(i, j int) bool {
		return tiles[i].Position < tiles[j].Position
	})
}

// Dense reports whether the tiles' positions are exactly a permutation of 0..n-1.
func Dense(tiles []models.Tile) bool {
	seen := make([]bool, len(tiles))
	for _, t := range tiles {
		if !InRange(t.Position, len(tiles)) || seen[t.Position] {
			return false
		}
		seen[t.Position] = true
	}
	return true
}

// OnPage returns copies of the tiles on pageID, sorted by position.
func OnPage(tiles []models.Tile, pageID string) []models.Tile {
	var out []models.Tile
	for _, t := range tiles {
		if t.PageID == pageID {
			out = append(out, t)
		}
	}
	SortByPosition(out)
	return out
}

// Splice replaces every tile on pageID in all with pageTiles, keeping tiles of
// other pages in their original relative order ahead of the page's tiles.
func Splice(all []models.Tile, pageID string, pageTiles []models.Tile) []models.Tile {
	out := make([]models.Tile, 0, len(all))
	for _, t := range all {
		if t.PageID != pageID {
			out = append(out, t)
		}
	}
	return append(out, pageTiles...)
}
