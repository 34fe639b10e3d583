// Package weather fetches current conditions and geocodes city names for the
// weather widget. Results never touch the start-page state directly; callers
// re-enter the mutation service when a user picks a city.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/starford/speeddial/internal/models"
)

const (
	defaultForecastURL  = "https://api.open-meteo.com/v1/forecast"
	defaultGeocodingURL = "https://geocoding-api.open-meteo.com/v1/search"
)

// Conditions is the current weather at one location.
type Conditions struct {
	Temperature     float64 `json:"temperature"`
	HumidityPercent float64 `json:"humidity"`
	WindSpeed       float64 `json:"windSpeed"`
	IsDaytime       bool    `json:"isDay"`
	WeatherCode     int     `json:"weatherCode"`
}

// Place is one geocoding match.
type Place struct {
	Name        string  `json:"name"`
	AdminRegion string  `json:"admin1,omitempty"`
	Country     string  `json:"country,omitempty"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// Label is the display name stored on a weather city: "Name, Region" or
// "Name, Country" when the region is unknown.
func (p Place) Label() string {
	region := p.AdminRegion
	if region == "" {
		region = p.Country
	}
	if region == "" {
		return p.Name
	}
	return p.Name + ", " + region
}

// City converts the place into a weather city config without an id.
func (p Place) City() models.WeatherCity {
	return models.WeatherCity{Location: p.Label(), Latitude: p.Latitude, Longitude: p.Longitude}
}

// Forecaster returns current conditions for a coordinate.
type Forecaster interface {
	Current(ctx context.Context, lat, lng float64, unit string) (Conditions, error)
}

// Geocoder resolves a free-text city query into places.
type Geocoder interface {
	Search(ctx context.Context, query string, limit int) ([]Place, error)
}

// Client talks to the open-meteo forecast and geocoding endpoints.
type Client struct {
	httpClient   *http.Client
	forecastURL  string
	geocodingURL string
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithEndpoints overrides the forecast and geocoding base URLs.
func WithEndpoints(forecastURL, geocodingURL string) ClientOption {
	return func(c *Client) {
		if forecastURL != "" {
			c.forecastURL = forecastURL
		}
		if geocodingURL != "" {
			c.geocodingURL = geocodingURL
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a Client with a 10 second request timeout.
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		forecastURL:  defaultForecastURL,
		geocodingURL: defaultGeocodingURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type forecastResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
		WeatherCode int     `json:"weather_code"`
		Humidity    float64 `json:"relative_humidity_2m"`
		WindSpeed   float64 `json:"wind_speed_10m"`
		IsDay       int     `json:"is_day"`
	} `json:"current"`
}

// Current fetches conditions at lat/lng. Imperial units request Fahrenheit and mph.
func (c *Client) Current(ctx context.Context, lat, lng float64, unit string) (Conditions, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("current", "temperature_2m,weather_code,relative_humidity_2m,wind_speed_10m,is_day")
	if unit == models.UnitImperial {
		q.Set("temperature_unit", "fahrenheit")
		q.Set("wind_speed_unit", "mph")
	}

	var resp forecastResponse
	if err := c.getJSON(ctx, c.forecastURL+"?"+q.Encode(), &resp); err != nil {
		return Conditions{}, fmt.Errorf("weather: forecast: %w", err)
	}
	return Conditions{
		Temperature:     resp.Current.Temperature,
		HumidityPercent: resp.Current.Humidity,
		WindSpeed:       resp.Current.WindSpeed,
		IsDaytime:       resp.Current.IsDay == 1,
		WeatherCode:     resp.Current.WeatherCode,
	}, nil
}

type geocodingResponse struct {
	Results []Place `json:"results"`
}

// Search looks up places matching query.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	q := url.Values{}
	q.Set("name", query)
	q.Set("count", strconv.Itoa(limit))
	q.Set("language", "en")
	q.Set("format", "json")

	var resp geocodingResponse
	if err := c.getJSON(ctx, c.geocodingURL+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("weather: geocode %q: %w", query, err)
	}
	if resp.Results == nil {
		return []Place{}, nil
	}
	return resp.Results, nil
}

func (c *Client) getJSON(ctx context.Context, rawURL string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
