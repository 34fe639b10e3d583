package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/speeddial/internal/dashboard"
	"github.com/starford/speeddial/internal/models"
)

// Handler holds API route handlers.
type Handler struct {
	svc *dashboard.Service
}

// NewHandler creates a new Handler.
func NewHandler(svc *dashboard.Service) *Handler {
	return &Handler{svc: svc}
}

// State handles GET /api/state.
//
//	@Summary	Full start-page state
//	@Tags		state
//	@Produce	json
//	@Success	200	{object}	state.State
//	@Security	BearerAuth
//	@Router		/state [get]
func (h *Handler) State(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Snapshot(r.Context()))
}

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, PageListResponse{
		Pages:        h.svc.Pages(r.Context()),
		ActivePageID: h.svc.ActivePageID(r.Context()),
	})
}

// CreatePage handles POST /api/pages.
//
//	@Summary	Append a page
//	@Tags		pages
//	@Accept		json
//	@Produce	json
//	@Param		body	body		NameRequest	true	"Page name; blank uses the default"
//	@Success	201		{object}	models.Page
//	@Failure	507		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/pages [post]
func (h *Handler) CreatePage(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	page, err := h.svc.CreatePage(r.Context(), req.Name)
	respond(w, r, http.StatusCreated, page, err)
}

// RenamePage handles PATCH /api/pages/{id}.
func (h *Handler) RenamePage(w http.ResponseWriter, r *http.Request) {
	var req NameRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	page, err := h.svc.RenamePage(r.Context(), chi.URLParam(r, "id"), req.Name)
	respond(w, r, http.StatusOK, page, err)
}

// DeletePage handles DELETE /api/pages/{id}.
//
//	@Summary	Delete a page and its tiles
//	@Tags		pages
//	@Param		id	path	string	true	"Page id"
//	@Success	204	"Page deleted"
//	@Failure	404	{object}	errResponse
//	@Failure	409	{object}	errResponse	"Last page"
//	@Security	BearerAuth
//	@Router		/pages/{id} [delete]
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeletePage(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusNoContent, nil, err)
}

// ReorderPages handles POST /api/pages/reorder.
func (h *Handler) ReorderPages(w http.ResponseWriter, r *http.Request) {
	oldIndex, newIndex, ok := decodeMove(w, r)
	if !ok {
		return
	}
	pages, err := h.svc.ReorderPages(r.Context(), oldIndex, newIndex)
	respond(w, r, http.StatusOK, pages, err)
}

// SortPages handles POST /api/pages/sort.
func (h *Handler) SortPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.SortPages(r.Context())
	respond(w, r, http.StatusOK, pages, err)
}

// SetActivePage handles PUT /api/active-page.
func (h *Handler) SetActivePage(w http.ResponseWriter, r *http.Request) {
	var req ActivePageRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.SetActivePage(r.Context(), req.ID)
	respond(w, r, http.StatusOK, req, err)
}

// ListTiles handles GET /api/pages/{id}/tiles.
func (h *Handler) ListTiles(w http.ResponseWriter, r *http.Request) {
	pageID := chi.URLParam(r, "id")
	tiles, err := h.svc.Tiles(r.Context(), pageID)
	respond(w, r, http.StatusOK, TileListResponse{PageID: pageID, Tiles: tiles}, err)
}

// CreateTile handles POST /api/pages/{id}/tiles.
//
//	@Summary	Append a tile to a page
//	@Tags		tiles
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string					true	"Page id"
//	@Param		body	body		dashboard.TileInput		true	"Tile fields; only url is required"
//	@Success	201		{object}	models.Tile
//	@Failure	404		{object}	errResponse
//	@Failure	422		{object}	errResponse
//	@Failure	507		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/pages/{id}/tiles [post]
func (h *Handler) CreateTile(w http.ResponseWriter, r *http.Request) {
	var req dashboard.TileInput
	if !decodeJSON(w, r, &req) {
		return
	}
	tile, err := h.svc.CreateTile(r.Context(), chi.URLParam(r, "id"), req)
	respond(w, r, http.StatusCreated, tile, err)
}

// ReorderTiles handles POST /api/pages/{id}/tiles/reorder.
func (h *Handler) ReorderTiles(w http.ResponseWriter, r *http.Request) {
	oldIndex, newIndex, ok := decodeMove(w, r)
	if !ok {
		return
	}
	pageID := chi.URLParam(r, "id")
	tiles, err := h.svc.ReorderTiles(r.Context(), pageID, oldIndex, newIndex)
	respond(w, r, http.StatusOK, TileListResponse{PageID: pageID, Tiles: tiles}, err)
}

// UpdateTile handles PATCH /api/tiles/{id}.
func (h *Handler) UpdateTile(w http.ResponseWriter, r *http.Request) {
	var req dashboard.TilePatch
	if !decodeJSON(w, r, &req) {
		return
	}
	tile, err := h.svc.UpdateTile(r.Context(), chi.URLParam(r, "id"), req)
	respond(w, r, http.StatusOK, tile, err)
}

// DeleteTile handles DELETE /api/tiles/{id}.
func (h *Handler) DeleteTile(w http.ResponseWriter, r *http.Request) {
	err := h.svc.DeleteTile(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusNoContent, nil, err)
}

// GetSettings handles GET /api/settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Settings(r.Context()))
}

// UpdateSettings handles PATCH /api/settings.
//
//	@Summary	Change settings
//	@Tags		settings
//	@Accept		json
//	@Produce	json
//	@Param		body	body		dashboard.SettingsPatch	true	"Fields to change"
//	@Success	200		{object}	models.Settings
//	@Failure	409		{object}	errResponse	"Too many weather cities"
//	@Failure	422		{object}	errResponse
//	@Security	BearerAuth
//	@Router		/settings [patch]
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req dashboard.SettingsPatch
	if !decodeJSON(w, r, &req) {
		return
	}
	s, err := h.svc.UpdateSettings(r.Context(), req)
	respond(w, r, http.StatusOK, s, err)
}

// AddWeatherCity handles POST /api/settings/weather-cities.
func (h *Handler) AddWeatherCity(w http.ResponseWriter, r *http.Request) {
	var req models.WeatherCity
	if !decodeJSON(w, r, &req) {
		return
	}
	city, err := h.svc.AddWeatherCity(r.Context(), req)
	respond(w, r, http.StatusCreated, city, err)
}

// RemoveWeatherCity handles DELETE /api/settings/weather-cities/{id}.
func (h *Handler) RemoveWeatherCity(w http.ResponseWriter, r *http.Request) {
	err := h.svc.RemoveWeatherCity(r.Context(), chi.URLParam(r, "id"))
	respond(w, r, http.StatusNoContent, nil, err)
}

// GetNote handles GET /api/note.
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NoteResponse{Text: h.svc.Note(r.Context())})
}

// SetNote handles PUT /api/note.
func (h *Handler) SetNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	err := h.svc.SetNote(r.Context(), req.Text)
	respond(w, r, http.StatusOK, NoteResponse(req), err)
}

// Reset handles POST /api/reset.
func (h *Handler) Reset(w http.ResponseWriter, r *http.Request) {
	err := h.svc.Reset(r.Context())
	respond(w, r, http.StatusOK, h.svc.Snapshot(r.Context()), err)
}

func decodeMove(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	var req MoveRequest
	if !decodeJSON(w, r, &req) {
		return 0, 0, false
	}
	if req.OldIndex == nil || req.NewIndex == nil {
		writeJSON(w, http.StatusBadRequest, errorBody("oldIndex and newIndex are required"))
		return 0, 0, false
	}
	return *req.OldIndex, *req.NewIndex, true
}
