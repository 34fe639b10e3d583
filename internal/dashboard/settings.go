package dashboard

import (
	"context"
	"encoding/base64"
	"slices"
	"strings"

	"github.com/starford/speeddial/internal/models"
)

// MaxBackgroundImageBytes caps an uploaded background image before encoding.
const MaxBackgroundImageBytes = 4_500_000

// SettingsPatch names the settings to change; nil fields are left alone.
// Cols is clamped to the allowed range rather than rejected.
type SettingsPatch struct {
	Cols            *int                  `json:"cols,omitempty"`
	SearchProvider  *string               `json:"searchProvider,omitempty"`
	Theme           *string               `json:"theme,omitempty"`
	ThemeColor      *string               `json:"themeColor,omitempty"`
	BackgroundColor *string               `json:"backgroundColor,omitempty"`
	BackgroundImage *string               `json:"backgroundImage,omitempty"`
	TileOpacity     *float64              `json:"tileOpacity,omitempty"`
	TimeFormat24h   *bool                 `json:"timeFormat24h,omitempty"`
	OpenInNewTab    *bool                 `json:"openInNewTab,omitempty"`
	ShowWeather     *bool                 `json:"showWeather,omitempty"`
	WeatherCities   *[]models.WeatherCity `json:"weatherConfigs,omitempty"`
	ShowNotes       *bool                 `json:"showNotes,omitempty"`
	NotesPosition   *string               `json:"notesPosition,omitempty"`
	WeatherStyle    *string               `json:"weatherStyle,omitempty"`
	WeatherUnit     *string               `json:"weatherUnit,omitempty"`
}

func (p SettingsPatch) apply(s *models.Settings) {
	if p.Cols != nil {
		s.Cols = models.Columns(models.ClampColumns(*p.Cols))
	}
	setIf(&s.SearchProvider, p.SearchProvider)
	setIf(&s.Theme, p.Theme)
	setIf(&s.ThemeColor, p.ThemeColor)
	setIf(&s.BackgroundColor, p.BackgroundColor)
	setIf(&s.BackgroundImage, p.BackgroundImage)
	setIf(&s.TileOpacity, p.TileOpacity)
	setIf(&s.TimeFormat24h, p.TimeFormat24h)
	setIf(&s.OpenInNewTab, p.OpenInNewTab)
	setIf(&s.ShowWeather, p.ShowWeather)
	setIf(&s.ShowNotes, p.ShowNotes)
	setIf(&s.NotesPosition, p.NotesPosition)
	setIf(&s.WeatherStyle, p.WeatherStyle)
	setIf(&s.WeatherUnit, p.WeatherUnit)
	if p.WeatherCities != nil {
		s.WeatherCities = append([]models.WeatherCity{}, (*p.WeatherCities)...)
	}
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// UpdateSettings applies patch. The whole patch is rejected when any field is
// invalid.
func (s *Service) UpdateSettings(ctx context.Context, patch SettingsPatch) (models.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.WeatherCities != nil && len(*patch.WeatherCities) > models.MaxWeatherCities {
		return models.Settings{}, constraint("at most %d weather cities", models.MaxWeatherCities)
	}
	st := s.c.Current()
	next := st.Settings.Clone()
	patch.apply(&next)
	if err := next.Validate(); err != nil {
		return models.Settings{}, models.ValidationError(err)
	}
	for _, c := range next.WeatherCities {
		if err := c.Validate(); err != nil {
			return models.Settings{}, models.ValidationError(err)
		}
	}
	st.Settings = next
	return next.Clone(), s.commit(ctx, EventSettingsUpdated, "")
}

// AddWeatherCity appends city to the configured list. A missing id is generated.
func (s *Service) AddWeatherCity(ctx context.Context, city models.WeatherCity) (models.WeatherCity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	if !models.CanAddCity(st.Settings) {
		return models.WeatherCity{}, constraint("at most %d weather cities", models.MaxWeatherCities)
	}
	city.Location = strings.TrimSpace(city.Location)
	if err := city.Validate(); err != nil {
		return models.WeatherCity{}, models.ValidationError(err)
	}
	if city.ID == "" {
		city.ID = models.FlexID(s.newID())
	}
	st.Settings.WeatherCities = append(st.Settings.WeatherCities, city)
	return city, s.commit(ctx, EventSettingsUpdated, string(city.ID))
}

// RemoveWeatherCity drops the city with the given id.
func (s *Service) RemoveWeatherCity(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.c.Current()
	idx := slices.IndexFunc(st.Settings.WeatherCities, func(c models.WeatherCity) bool {
		return string(c.ID) == id
	})
	if idx < 0 {
		return notFound("weather city", id)
	}
	st.Settings.WeatherCities = slices.Delete(st.Settings.WeatherCities, idx, idx+1)
	return s.commit(ctx, EventSettingsUpdated, id)
}

// SetBackgroundImage embeds data as a data URL background. Large images are
// likely to exceed the store quota; the error then wraps ErrQuotaExceeded.
func (s *Service) SetBackgroundImage(ctx context.Context, mime string, data []byte) (models.Settings, error) {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if !strings.HasPrefix(mime, "image/") {
		return models.Settings{}, invalid("unsupported image type %q", mime)
	}
	if len(data) == 0 {
		return models.Settings{}, invalid("image is empty")
	}
	if len(data) > MaxBackgroundImageBytes {
		return models.Settings{}, invalid("image is %d bytes, limit is %d", len(data), MaxBackgroundImageBytes)
	}
	dataURL := "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
	return s.UpdateSettings(ctx, SettingsPatch{BackgroundImage: &dataURL})
}

// ClearBackgroundImage removes the background image.
func (s *Service) ClearBackgroundImage(ctx context.Context) (models.Settings, error) {
	empty := ""
	return s.UpdateSettings(ctx, SettingsPatch{BackgroundImage: &empty})
}
