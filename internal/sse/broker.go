// Package sse is the start page's change feed.
//
// Every mutation of the dashboard produces one event named after the change
// (tile.created, pages.reordered, settings.updated, state.imported, ...) whose
// data is {"id": ...} for the affected entity, or {} when there is none. Bursts
// of mutations are summarized by a state.updated event, sent at most once per
// throttle interval, which tells clients to refetch GET /api/state. Background
// work publishes its own events (weather.search, inbox.result) through Publish.
//
// Frames carry a monotonically increasing id so EventSource clients can tell
// whether they missed anything across a reconnect.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// EventStateUpdated is the throttled summary sent after bursts of changes.
const EventStateUpdated = "state.updated"

// RetryInterval is the reconnect delay suggested to clients on connect.
const RetryInterval = 3 * time.Second

// Event is one frame of the change feed.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Change is the data of a mutation event.
type Change struct {
	ID string `json:"id,omitempty"`
}

type changeReq struct {
	kind string
	id   string
}

// Broker fans events out to connected clients.
//
// A single goroutine owns the client set, the frame counter and the throttle
// timestamp; the public methods talk to it over channels.
type Broker struct {
	throttle time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	changeCh      chan changeReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a broker that emits state.updated at most once per throttle.
func NewBroker(throttle time.Duration) *Broker {
	if throttle <= 0 {
		throttle = 2 * time.Second
	}

	b := &Broker{
		throttle:      throttle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, 256),
		changeCh:      make(chan changeReq, 256),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

// hub is the state owned by the broker goroutine.
type hub struct {
	clients   map[chan []byte]struct{}
	seq       uint64
	lastState time.Time
}

// frame encodes ev in wire format. Events whose data cannot be encoded are dropped.
func (h *hub) frame(ev Event) ([]byte, bool) {
	payload, err := json.Marshal(ev.Data)
	if err != nil {
		return nil, false
	}
	h.seq++
	return fmt.Appendf(nil, "id: %d\nevent: %s\ndata: %s\n\n", h.seq, ev.Type, payload), true
}

func (h *hub) broadcast(ev Event) {
	raw, ok := h.frame(ev)
	if !ok {
		return
	}
	for ch := range h.clients {
		select {
		case ch <- raw:
		default:
			// slow client; drop
		}
	}
}

// change sends a mutation event and, outside the throttle window, the summary.
func (h *hub) change(req changeReq, throttle time.Duration, now time.Time) {
	h.broadcast(Event{Type: req.kind, Data: Change{ID: req.id}})
	if now.Sub(h.lastState) >= throttle {
		h.lastState = now
		h.broadcast(Event{Type: EventStateUpdated, Data: Change{}})
	}
}

func (b *Broker) run() {
	defer close(b.stopped)

	h := &hub{clients: make(map[chan []byte]struct{})}

	for {
		select {
		case <-b.stopCh:
			for ch := range h.clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			h.clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := h.clients[ch]; ok {
				delete(h.clients, ch)
				close(ch)
			}

		case ev := <-b.publishCh:
			h.broadcast(ev)

		case req := <-b.changeCh:
			h.change(req, b.throttle, time.Now())

		case resp := <-b.countReqCh:
			resp <- len(h.clients)
		}
	}
}

// Close stops the broker and disconnects every client.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe registers a client. The channel is closed on Unsubscribe or Close.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends a background event (weather.search, inbox.result) to all clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishChange records a dashboard mutation. Its signature matches
// dashboard.Notifier.
func (b *Broker) PublishChange(kind, id string) {
	if b.closed.Load() {
		return
	}
	select {
	case b.changeCh <- changeReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

// ServeHTTP streams the feed to one client (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	_, _ = fmt.Fprintf(w, "retry: %d\n\n", RetryInterval.Milliseconds())
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
