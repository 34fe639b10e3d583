// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/starford/speeddial/internal/api"
	"github.com/starford/speeddial/internal/dashboard"
	"github.com/starford/speeddial/internal/inbox"
	"github.com/starford/speeddial/internal/kvstore"
	"github.com/starford/speeddial/internal/sse"
	"github.com/starford/speeddial/internal/weather"
)

// NewLogger builds the JSON logger. When a log file is configured, records go
// to both w and the rotated file; the returned closer releases the file.
func NewLogger(cfg ApplicationConfig, w io.Writer) (*slog.Logger, io.Closer) {
	if w == nil {
		w = os.Stdout
	}
	var closer io.Closer = io.NopCloser(nil)
	if cfg.Log.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.Log.File,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAge:     cfg.Log.MaxAgeDays,
		}
		w = io.MultiWriter(w, rotated)
		closer = rotated
	}
	logger := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	return logger, closer
}

// OpenStore opens the configured store backend.
func OpenStore(cfg StoreConfig) (kvstore.Store, error) {
	switch cfg.Driver {
	case StoreDriverMemory:
		return kvstore.NewMemory(cfg.Quota), nil
	case StoreDriverFS:
		return kvstore.NewFS(cfg.Path, cfg.Quota)
	case StoreDriverSQLite:
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store dir: %w", err)
			}
		}
		return kvstore.OpenSQLite(cfg.Path, cfg.Quota)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// readyHandler reports ready once the store answers a key listing.
func readyHandler(store kvstore.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		keys, err := store.Keys(r.Context())
		if err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"store unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = fmt.Fprintf(w, `{"status":"ok","keys":%d}`, len(keys))
	}
}

// inboxEvents publishes the outcome of each dropped file as an inbox.result event.
func inboxEvents(broker *sse.Broker) inbox.ResultCallback {
	return func(name string, err error) {
		data := map[string]string{"file": name}
		if err != nil {
			data["error"] = err.Error()
		}
		broker.Publish(sse.Event{Type: inbox.EventResult, Data: data})
	}
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger, logFile := NewLogger(cfg.App, app.stdout)
	defer logFile.Close()
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_driver", cfg.Store.Driver),
		slog.String("store_path", cfg.Store.Path),
		slog.String("inbox_dir", cfg.Inbox.Dir),
		slog.Bool("weather", cfg.Weather.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	store := app.store
	if store == nil {
		s, err := OpenStore(cfg.Store)
		if err != nil {
			return fmt.Errorf("init store: %w", err)
		}
		defer s.Close()
		store = s
	}

	broker := sse.NewBroker(cfg.Events.Throttle)
	defer broker.Close()

	svc := dashboard.NewService(ctx, store, logger, dashboard.WithNotifier(broker.PublishChange))

	routerOpts := []api.RouterOption{api.WithEvents(broker)}

	var cache *weather.Cache
	if cfg.Weather.Enabled {
		client := weather.NewClient(weather.WithEndpoints(cfg.Weather.ForecastURL, cfg.Weather.GeocodingURL))
		cache = weather.NewCache(client, svc.Settings, cfg.Weather.RefreshInterval, logger)
		searcher := weather.NewSearcher(client, cfg.Weather.SearchDelay, func(res weather.SearchResult) {
			if res.Err != nil {
				logger.Warn("weather search failed",
					slog.String("query", res.Query),
					slog.String("error", res.Err.Error()))
			}
			broker.Publish(sse.Event{Type: weather.EventSearch, Data: res})
		})
		defer searcher.Close()
		routerOpts = append(routerOpts, api.WithWeather(cache, searcher))
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, routerOpts...)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", readyHandler(store))

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(runCtx)

	if cfg.Inbox.Dir != "" {
		g.Go(func() error {
			return inbox.Watch(gCtx, cfg.Inbox.Dir, svc, cfg.Inbox.Debounce, logger, inboxEvents(broker))
		})
	}

	if cache != nil {
		g.Go(func() error {
			return cache.Run(gCtx)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")
		stop()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
