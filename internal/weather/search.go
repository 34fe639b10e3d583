package weather

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/bep/debounce"
)

// EventSearch is the change-feed event type carrying a SearchResult.
const EventSearch = "weather.search"

const (
	// DefaultSearchDelay coalesces keystrokes before a lookup is issued.
	DefaultSearchDelay = 500 * time.Millisecond
	// MinQueryLength is the shortest query that triggers a lookup.
	MinQueryLength = 2
	// SearchLimit caps the places returned per lookup.
	SearchLimit = 5
)

// SearchResult is delivered for the latest query only.
type SearchResult struct {
	Seq    uint64  `json:"seq"`
	Query  string  `json:"query"`
	Places []Place `json:"places"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
}

// Searcher debounces city queries and discards responses that were
// superseded by a newer query while in flight.
type Searcher struct {
	geo       Geocoder
	onResult  func(SearchResult)
	debounced func(func())
	seq       atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
}

// NewSearcher creates a searcher. A non-positive delay uses DefaultSearchDelay.
func NewSearcher(geo Geocoder, delay time.Duration, onResult func(SearchResult)) *Searcher {
	if delay <= 0 {
		delay = DefaultSearchDelay
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Searcher{
		geo:       geo,
		onResult:  onResult,
		debounced: debounce.New(delay),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Query records the latest search text and returns its sequence number.
// Queries shorter than MinQueryLength cancel any pending lookup and return 0.
func (s *Searcher) Query(q string) uint64 {
	q = strings.TrimSpace(q)
	n := s.seq.Add(1)
	if len([]rune(q)) < MinQueryLength {
		return 0
	}
	s.debounced(func() {
		if s.seq.Load() != n {
			return
		}
		places, err := s.geo.Search(s.ctx, q, SearchLimit)
		if s.seq.Load() != n || s.ctx.Err() != nil {
			return
		}
		res := SearchResult{Seq: n, Query: q, Places: places, Err: err}
		if err != nil {
			res.Error = err.Error()
		}
		s.onResult(res)
	})
	return n
}

// Close invalidates pending queries and cancels in-flight lookups.
func (s *Searcher) Close() {
	s.seq.Add(1)
	s.cancel()
}
