package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/speeddial/internal/dashboard"
	"github.com/starford/speeddial/internal/weather"
)

// RouterOption adds optional route groups.
type RouterOption func(chi.Router)

// WithEvents mounts the change feed at GET /events.
func WithEvents(h http.Handler) RouterOption {
	return func(r chi.Router) {
		if h != nil {
			r.Get("/events", h.ServeHTTP)
		}
	}
}

// WithWeather mounts the weather routes.
func WithWeather(cache *weather.Cache, searcher *weather.Searcher) RouterOption {
	return func(r chi.Router) {
		wh := &WeatherHandler{cache: cache, searcher: searcher}
		if cache != nil {
			r.Get("/weather", wh.Reports)
			r.Post("/weather/refresh", wh.Refresh)
		}
		if searcher != nil {
			r.Post("/weather/search", wh.Search)
		}
	}
}

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
func NewRouter(svc *dashboard.Service, authEnabled bool, token string, opts ...RouterOption) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Get("/state", h.State)

	r.Get("/pages", h.ListPages)
	r.Post("/pages", h.CreatePage)
	r.Post("/pages/reorder", h.ReorderPages)
	r.Post("/pages/sort", h.SortPages)
	r.Patch("/pages/{id}", h.RenamePage)
	r.Delete("/pages/{id}", h.DeletePage)
	r.Put("/active-page", h.SetActivePage)

	r.Get("/pages/{id}/tiles", h.ListTiles)
	r.Post("/pages/{id}/tiles", h.CreateTile)
	r.Post("/pages/{id}/tiles/reorder", h.ReorderTiles)
	r.Patch("/tiles/{id}", h.UpdateTile)
	r.Delete("/tiles/{id}", h.DeleteTile)

	r.Get("/settings", h.GetSettings)
	r.Patch("/settings", h.UpdateSettings)
	r.Post("/settings/background", h.UploadBackground)
	r.Delete("/settings/background", h.ClearBackground)
	r.Post("/settings/weather-cities", h.AddWeatherCity)
	r.Delete("/settings/weather-cities/{id}", h.RemoveWeatherCity)

	r.Get("/note", h.GetNote)
	r.Put("/note", h.SetNote)

	r.Get("/export", h.Export)
	r.Post("/import", h.Import)
	r.Post("/reset", h.Reset)

	for _, opt := range opts {
		opt(r)
	}
	return r
}
