package weather

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/starford/speeddial/internal/models"
)

// DefaultRefreshInterval is how often Cache refreshes conditions.
const DefaultRefreshInterval = 10 * time.Minute

// Report is the outcome of fetching one city. Err is set when the fetch failed;
// other cities are unaffected.
type Report struct {
	City       models.WeatherCity `json:"city"`
	Conditions *Conditions        `json:"conditions,omitempty"`
	Err        error              `json:"-"`
	Error      string             `json:"error,omitempty"`
}

// FetchAll fetches every city concurrently. Reports keep the order of cities.
func FetchAll(ctx context.Context, f Forecaster, cities []models.WeatherCity, unit string) []Report {
	reports := make([]Report, len(cities))
	g, ctx := errgroup.WithContext(ctx)
	for i, city := range cities {
		g.Go(func() error {
			reports[i].City = city
			cond, err := f.Current(ctx, city.Latitude, city.Longitude, unit)
			if err != nil {
				reports[i].Err = err
				reports[i].Error = err.Error()
				return nil
			}
			reports[i].Conditions = &cond
			return nil
		})
	}
	_ = g.Wait()
	return reports
}

// SettingsSource yields the settings that decide what to fetch.
type SettingsSource func(ctx context.Context) models.Settings

// Cache holds the latest reports and refreshes them periodically.
type Cache struct {
	f        Forecaster
	source   SettingsSource
	interval time.Duration
	logger   *slog.Logger

	mu      sync.RWMutex
	reports []Report
	fetched time.Time
}

// NewCache creates a cache. A non-positive interval uses DefaultRefreshInterval.
func NewCache(f Forecaster, source SettingsSource, interval time.Duration, logger *slog.Logger) *Cache {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{f: f, source: source, interval: interval, logger: logger}
}

// Refresh fetches conditions for the configured cities. Nothing is fetched
// while the weather widget is hidden.
func (c *Cache) Refresh(ctx context.Context) []Report {
	s := c.source(ctx)
	var reports []Report
	if s.ShowWeather {
		reports = FetchAll(ctx, c.f, s.WeatherCities, s.WeatherUnit)
	}
	failed := 0
	for _, r := range reports {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		c.logger.Warn("weather refresh incomplete", slog.Int("failed", failed), slog.Int("cities", len(reports)))
	}

	c.mu.Lock()
	c.reports = reports
	c.fetched = time.Now()
	c.mu.Unlock()
	return reports
}

// Reports returns the latest reports and when they were fetched.
func (c *Cache) Reports() ([]Report, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Report(nil), c.reports...), c.fetched
}

// Run refreshes immediately and then on every interval until ctx is done.
func (c *Cache) Run(ctx context.Context) error {
	c.Refresh(ctx)
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}
