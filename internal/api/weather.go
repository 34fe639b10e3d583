package api

import (
	"net/http"
	"time"

	"github.com/starford/speeddial/internal/weather"
)

// WeatherHandler serves cached conditions and starts city searches.
type WeatherHandler struct {
	cache    *weather.Cache
	searcher *weather.Searcher
}

// Reports handles GET /api/weather.
func (h *WeatherHandler) Reports(w http.ResponseWriter, r *http.Request) {
	reports, at := h.cache.Reports()
	resp := WeatherResponse{Reports: reports}
	if resp.Reports == nil {
		resp.Reports = []weather.Report{}
	}
	if !at.IsZero() {
		resp.FetchedAt = at.UTC().Format(time.RFC3339)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Refresh handles POST /api/weather/refresh.
func (h *WeatherHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	h.cache.Refresh(r.Context())
	h.Reports(w, r)
}

// Search handles POST /api/weather/search. Results are delivered later as
// weather.search events; only the latest query produces one.
func (h *WeatherHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusAccepted, SearchAccepted{Seq: h.searcher.Query(req.Query)})
}
