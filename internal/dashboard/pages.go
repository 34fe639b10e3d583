package dashboard

import (
	"context"
	"slices"
	"strings"

	"github.com/starford/speeddial/internal/models"
	"github.com/starford/speeddial/internal/reorder"
)

// DefaultPageName names a page created without one.
const DefaultPageName = "New Group"

// CreatePage appends a page to the sequence.
func (s *Service) CreatePage(ctx context.Context, name string) (models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultPageName
	}
	page := models.Page{ID: s.newID(), Name: name}
	st := s.c.Current()
	st.Pages = append(st.Pages, page)
	return page, s.commit(ctx, EventPageCreated, page.ID)
}

// RenamePage changes the name of page id.
func (s *Service) RenamePage(ctx context.Context, id, name string) (models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	idx := st.PageIndex(id)
	if idx < 0 {
		return models.Page{}, notFound("page", id)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Page{}, invalid("page name is required")
	}
	st.Pages[idx].Name = name
	return st.Pages[idx], s.commit(ctx, EventPageRenamed, id)
}

// DeletePage removes page id together with its tiles. The last page cannot be
// deleted. The active page moves to the first remaining page when needed.
func (s *Service) DeletePage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	idx := st.PageIndex(id)
	if idx < 0 {
		return notFound("page", id)
	}
	if len(st.Pages) <= 1 {
		return constraint("cannot delete the last page")
	}
	st.Pages = slices.Delete(st.Pages, idx, idx+1)
	st.Tiles = slices.DeleteFunc(st.Tiles, func(t models.Tile) bool { return t.PageID == id })
	st.FixActivePage()
	return s.commit(ctx, EventPageDeleted, id)
}

// ReorderPages moves the page at oldIndex to newIndex.
func (s *Service) ReorderPages(ctx context.Context, oldIndex, newIndex int) ([]models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	if !reorder.InRange(oldIndex, len(st.Pages)) || !reorder.InRange(newIndex, len(st.Pages)) {
		return nil, invalid("move %d -> %d out of range for %d pages", oldIndex, newIndex, len(st.Pages))
	}
	st.Pages = reorder.Move(st.Pages, oldIndex, newIndex)
	return append([]models.Page(nil), st.Pages...), s.commit(ctx, EventPagesReordered, "")
}

// SortPages orders pages by name, case-insensitively. Equal names keep their
// relative order.
func (s *Service) SortPages(ctx context.Context) ([]models.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	slices.SortStableFunc(st.Pages, func(a, b models.Page) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})
	return append([]models.Page(nil), st.Pages...), s.commit(ctx, EventPagesReordered, "")
}

// SetActivePage selects the displayed page.
func (s *Service) SetActivePage(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	if !st.HasPage(id) {
		return notFound("page", id)
	}
	st.ActivePageID = id
	return s.commit(ctx, EventPageActivated, id)
}
