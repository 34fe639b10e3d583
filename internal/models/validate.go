package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/speeddial/internal/apperr"
)

// Column bounds for the tile grid.
const (
	MinColumns     = 1
	MaxColumns     = 12
	DefaultColumns = 4
)

var (
	schemeRe = regexp.MustCompile(`(?i)^https?://`)
	hexRe    = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

// Columns is a grid column count. It decodes from a JSON number or a numeric
// string and is always clamped to [MinColumns, MaxColumns].
type Columns int

// UnmarshalJSON accepts numbers and numeric strings; anything else becomes DefaultColumns.
func (c *Columns) UnmarshalJSON(data []byte) error {
	raw := string(bytes.TrimSpace(data))
	if s, err := strconv.Unquote(raw); err == nil {
		raw = s
	}
	*c = Columns(ParseColumns(raw))
	return nil
}

// ClampColumns clamps n to [MinColumns, MaxColumns].
func ClampColumns(n int) int {
	return max(MinColumns, min(MaxColumns, n))
}

// ParseColumns parses user text into a clamped column count, using
// DefaultColumns for non-numeric input.
func ParseColumns(s string) int {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return ClampColumns(n)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return DefaultColumns
	}
	if f > MaxColumns {
		return MaxColumns
	}
	if f < MinColumns {
		return MinColumns
	}
	return ClampColumns(int(f))
}

// NormalizeURL prepends https:// when s has no http(s) scheme.
func NormalizeURL(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: url is required", apperr.ErrValidation)
	}
	if !schemeRe.MatchString(s) {
		s = "https://" + s
	}
	return s, nil
}

// DeriveTitle returns the host of rawURL, or "New Site" when it has none.
func DeriveTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "New Site"
	}
	return u.Hostname()
}

// CanAddCity reports whether another weather city fits under the cap.
func CanAddCity(s Settings) bool {
	return len(s.WeatherCities) < MaxWeatherCities
}

// Validate checks every setting against its allowed values.
func (s Settings) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Cols, validation.Min(MinColumns), validation.Max(MaxColumns)),
		validation.Field(&s.SearchProvider, validation.Required, validation.In(stringsToAny(SearchProviders)...)),
		validation.Field(&s.Theme, validation.Required, validation.In(ThemeDark, ThemeLight)),
		validation.Field(&s.ThemeColor, validation.Required, validation.Match(hexRe)),
		validation.Field(&s.BackgroundColor, validation.Required, validation.Match(hexRe)),
		validation.Field(&s.BackgroundImage, validation.By(backgroundImageRule)),
		validation.Field(&s.TileOpacity, validation.Min(0.0), validation.Max(1.0)),
		validation.Field(&s.WeatherCities, validation.Length(0, MaxWeatherCities)),
		validation.Field(&s.NotesPosition, validation.Required, validation.In(NotesLeft, NotesRight)),
		validation.Field(&s.WeatherStyle, validation.Required, validation.In(WeatherDetailed, WeatherCompact)),
		validation.Field(&s.WeatherUnit, validation.Required, validation.In(UnitImperial, UnitMetric)),
	)
}

// Validate checks a single weather city.
func (c WeatherCity) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Location, validation.Required),
		validation.Field(&c.Latitude, validation.Min(-90.0), validation.Max(90.0)),
		validation.Field(&c.Longitude, validation.Min(-180.0), validation.Max(180.0)),
	)
}

// Normalize repairs settings read from storage or an import: numeric fields are
// clamped, unknown enum values fall back to defaults, an unusable background
// image is cleared and invalid or excess cities are dropped. The result always
// passes Validate.
func (s *Settings) Normalize() {
	def := DefaultSettings()
	s.Cols = Columns(ClampColumns(int(s.Cols)))
	s.TileOpacity = max(0, min(1, s.TileOpacity))
	if !slices.Contains(SearchProviders, s.SearchProvider) {
		s.SearchProvider = def.SearchProvider
	}
	if s.Theme != ThemeDark && s.Theme != ThemeLight {
		s.Theme = def.Theme
	}
	if !hexRe.MatchString(s.ThemeColor) {
		s.ThemeColor = def.ThemeColor
	}
	if !hexRe.MatchString(s.BackgroundColor) {
		s.BackgroundColor = def.BackgroundColor
	}
	if s.NotesPosition != NotesLeft && s.NotesPosition != NotesRight {
		s.NotesPosition = def.NotesPosition
	}
	if s.WeatherStyle != WeatherDetailed && s.WeatherStyle != WeatherCompact {
		s.WeatherStyle = def.WeatherStyle
	}
	if s.WeatherUnit != UnitImperial && s.WeatherUnit != UnitMetric {
		s.WeatherUnit = def.WeatherUnit
	}
	if backgroundImageRule(s.BackgroundImage) != nil {
		s.BackgroundImage = ""
	}
	cities := make([]WeatherCity, 0, len(s.WeatherCities))
	for _, c := range s.WeatherCities {
		if c.Validate() == nil && len(cities) < MaxWeatherCities {
			cities = append(cities, c)
		}
	}
	s.WeatherCities = cities
}

// DecodeSettings decodes a stored or imported settings object over the
// defaults and normalizes it. A weatherConfigs list in data replaces the
// default cities as a whole; when the key is absent or null the defaults stay.
func DecodeSettings(data []byte) (Settings, error) {
	s := DefaultSettings()
	s.WeatherCities = nil
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, err
	}
	if s.WeatherCities == nil {
		s.WeatherCities = DefaultSettings().WeatherCities
	}
	s.Normalize()
	return s, nil
}

// ValidationError wraps an ozzo validation error so callers can match apperr.ErrValidation.
func ValidationError(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", apperr.ErrValidation, err)
}

func backgroundImageRule(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "data:image/") || schemeRe.MatchString(s) {
		return nil
	}
	return errors.New("must be an http(s) URL or an image data URL")
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// FlexID is an identifier that decodes from either a JSON string or a number.
// Older backups and the legacy format store numeric ids.
type FlexID string

// UnmarshalJSON accepts strings, numbers and null. Whole numbers lose any
// fraction or exponent notation, so 1.0 and 1e0 both become "1".
func (id *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = FlexID(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("id must be a string or number: %w", err)
		}
		lit := n.String()
		if strings.ContainsAny(lit, ".eE") {
			if f, err := n.Float64(); err == nil {
				lit = strconv.FormatFloat(f, 'f', -1, 64)
			}
		}
		*id = FlexID(lit)
	}
	return nil
}
