package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/speeddial/internal/kvstore"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Store drivers.
const (
	StoreDriverSQLite = "sqlite"
	StoreDriverFS     = "fs"
	StoreDriverMemory = "memory"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Store   StoreConfig       `yaml:"store"`
	Auth    AuthConfig        `yaml:"auth"`
	Inbox   InboxConfig       `yaml:"inbox"`
	Weather WeatherConfig     `yaml:"weather"`
	Events  EventsConfig      `yaml:"events"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Auth.Validate(); err != nil {
		return err
	}
	if err := c.Inbox.Validate(); err != nil {
		return err
	}
	if err := c.Weather.Validate(); err != nil {
		return err
	}
	return c.Events.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	Log      LogConfig  `yaml:"log"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// LogConfig configures the optional rotated log file written next to stdout.
type LogConfig struct {
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Validate validates the log file configuration.
func (c *LogConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.MaxSizeMB, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
		validation.Field(&c.MaxAgeDays, validation.Min(0)),
	)
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// StoreConfig selects the persistent store backend.
//
// Path is the database file for "sqlite" and the directory for "fs"; it is
// ignored by "memory". Quota caps the total stored bytes; zero disables it.
type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
	Quota  int64  `yaml:"quota"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Driver, validation.Required,
			validation.In(StoreDriverSQLite, StoreDriverFS, StoreDriverMemory)),
		validation.Field(&c.Path, validation.When(c.Driver != StoreDriverMemory, validation.Required)),
		validation.Field(&c.Quota, validation.Min(int64(0))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// InboxConfig configures the backup drop directory. An empty Dir disables it.
type InboxConfig struct {
	Dir      string        `yaml:"dir"`
	Debounce time.Duration `yaml:"debounce"`
}

// Validate validates the inbox configuration.
func (c *InboxConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Debounce, validation.Min(time.Duration(0))),
	)
}

// WeatherConfig configures the weather refresh loop and city search.
type WeatherConfig struct {
	Enabled         bool          `yaml:"enabled"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	SearchDelay     time.Duration `yaml:"search_delay"`
	ForecastURL     string        `yaml:"forecast_url"`
	GeocodingURL    string        `yaml:"geocoding_url"`
}

// Validate validates the weather configuration.
func (c *WeatherConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.RefreshInterval, validation.When(c.Enabled, validation.Required, validation.Min(time.Minute))),
		validation.Field(&c.SearchDelay, validation.Min(time.Duration(0))),
	)
}

// EventsConfig configures the server-sent events broker.
type EventsConfig struct {
	Throttle time.Duration `yaml:"throttle"`
}

// Validate validates the events configuration.
func (c *EventsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Throttle, validation.Min(time.Duration(0))),
	)
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			Log: LogConfig{
				MaxSizeMB:  10,
				MaxBackups: 3,
				MaxAgeDays: 28,
			},
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverSQLite,
			Path:   "./speeddial.db",
			Quota:  kvstore.DefaultQuota,
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Inbox: InboxConfig{
			Debounce: 200 * time.Millisecond,
		},
		Weather: WeatherConfig{
			Enabled:         true,
			RefreshInterval: 10 * time.Minute,
			SearchDelay:     500 * time.Millisecond,
		},
		Events: EventsConfig{
			Throttle: 2 * time.Second,
		},
	}
}
