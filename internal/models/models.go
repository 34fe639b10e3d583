// Package models defines the start-page entities, their defaults and validators.
package models

// Enumerated setting values.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"

	NotesLeft  = "left"
	NotesRight = "right"

	WeatherDetailed = "detailed"
	WeatherCompact  = "compact"

	UnitImperial = "imperial"
	UnitMetric   = "metric"
)

// MaxWeatherCities caps Settings.WeatherCities.
const MaxWeatherCities = 5

// SearchProviders lists the recognized search provider ids; the first is the default.
var SearchProviders = []string{"google", "duckduckgo", "bing", "brave", "startpage", "ecosia"}

// Settings is the single global preferences record.
type Settings struct {
	Cols            Columns       `json:"cols"`
	SearchProvider  string        `json:"searchProvider"`
	Theme           string        `json:"theme"`
	ThemeColor      string        `json:"themeColor"`
	BackgroundColor string        `json:"backgroundColor"`
	BackgroundImage string        `json:"backgroundImage"`
	TileOpacity     float64       `json:"tileOpacity"`
	TimeFormat24h   bool          `json:"timeFormat24h"`
	OpenInNewTab    bool          `json:"openInNewTab"`
	ShowWeather     bool          `json:"showWeather"`
	WeatherCities   []WeatherCity `json:"weatherConfigs"`
	ShowNotes       bool          `json:"showNotes"`
	NotesPosition   string        `json:"notesPosition"`
	WeatherStyle    string        `json:"weatherStyle"`
	WeatherUnit     string        `json:"weatherUnit"`
}

// WeatherCity is one configured weather location.
type WeatherCity struct {
	ID        FlexID  `json:"id"`
	Location  string  `json:"location"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Page is a named grouping of tiles. Its rank is its index in the page sequence.
type Page struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tile is a single shortcut. Position is dense per PageID.
type Tile struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	URL      string `json:"url"`
	ImageURL string `json:"imageUrl"`
	Position int    `json:"position"`
	PageID   string `json:"pageId"`
}

// Clone returns a deep copy of s.
func (s Settings) Clone() Settings {
	out := s
	if s.WeatherCities != nil {
		out.WeatherCities = append([]WeatherCity(nil), s.WeatherCities...)
	}
	return out
}

// DefaultSettings returns the first-run settings.
func DefaultSettings() Settings {
	return Settings{
		Cols:            DefaultColumns,
		SearchProvider:  SearchProviders[0],
		Theme:           ThemeDark,
		ThemeColor:      "#f97316",
		BackgroundColor: "#020617",
		TileOpacity:     0.8,
		TimeFormat24h:   true,
		OpenInNewTab:    true,
		ShowWeather:     true,
		WeatherCities: []WeatherCity{
			{ID: "ny-weather", Location: "New York, NY", Latitude: 40.7128, Longitude: -74.0060},
		},
		ShowNotes:     true,
		NotesPosition: NotesRight,
		WeatherStyle:  WeatherDetailed,
		WeatherUnit:   UnitImperial,
	}
}

// DefaultPages returns the first-run page sequence.
func DefaultPages() []Page {
	return []Page{
		{ID: "home-group", Name: "Home"},
		{ID: "work-group", Name: "Work"},
	}
}

// DefaultTiles returns the first-run tiles.
func DefaultTiles() []Tile {
	return []Tile{
		{ID: "t1", Title: "YouTube", URL: "https://youtube.com", Position: 0, PageID: "home-group"},
		{ID: "t2", Title: "Reddit", URL: "https://reddit.com", Position: 1, PageID: "home-group"},
		{ID: "t3", Title: "GitHub", URL: "https://github.com", Position: 2, PageID: "home-group"},
		{ID: "t4", Title: "ChatGPT", URL: "https://chatgpt.com", Position: 3, PageID: "home-group"},
	}
}
