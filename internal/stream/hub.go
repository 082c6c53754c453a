// Package stream fans resolution progress out to websocket subscribers.
package stream

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

// Event types.
const (
	EventTransition = "transition"
	EventOutcome    = "outcome"
)

// Event is one message on the stream.
type Event struct {
	Type       string              `json:"type"`
	UnitID     string              `json:"unit_id"`
	Transition *resolve.Transition `json:"transition,omitempty"`
	Outcome    *resolve.Outcome    `json:"outcome,omitempty"`
}

type subscriber struct {
	unitID string // empty receives every unit
	events chan Event
}

// Hub is a resolve.Recorder that broadcasts to live subscribers. Slow
// subscribers lose events rather than stall resolution.
type Hub struct {
	buffer       int
	writeTimeout time.Duration

	mu          sync.RWMutex
	subscribers map[*subscriber]struct{}
}

// NewHub creates a hub with a per-subscriber buffer of 64 events.
func NewHub() *Hub {
	return &Hub{
		buffer:       64,
		writeTimeout: 5 * time.Second,
		subscribers:  make(map[*subscriber]struct{}),
	}
}

func (h *Hub) RecordTransition(_ context.Context, t resolve.Transition) error {
	h.publish(Event{Type: EventTransition, UnitID: t.UnitID, Transition: &t})
	return nil
}

func (h *Hub) RecordOutcome(_ context.Context, o resolve.Outcome) error {
	h.publish(Event{Type: EventOutcome, UnitID: o.UnitID, Outcome: &o})
	return nil
}

// Subscribe registers a listener for unitID, or every unit when empty. The
// returned cancel func must be called to release it.
func (h *Hub) Subscribe(unitID string) (<-chan Event, func()) {
	sub := &subscriber{unitID: unitID, events: make(chan Event, h.buffer)}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return sub.events, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subscribers, sub)
			h.mu.Unlock()
			close(sub.events)
		})
	}
}

// Subscribers returns the number of live subscribers.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}

func (h *Hub) publish(ev Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subscribers {
		if sub.unitID != "" && sub.unitID != ev.UnitID {
			continue
		}
		select {
		case sub.events <- ev:
		default:
			slog.Warn("dropping event for slow subscriber", "unit_id", ev.UnitID, "type", ev.Type)
		}
	}
}

// ServeHTTP upgrades to a websocket and streams events as JSON until the
// client disconnects. The optional unit_id query parameter filters events.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	events, cancel := h.Subscribe(r.URL.Query().Get("unit_id"))
	defer cancel()

	// Inbound messages are not expected; CloseRead handles pings and
	// reports the client going away.
	ctx := conn.CloseRead(r.Context())
	slog.Info("event subscriber connected", "remote", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			slog.Info("event subscriber disconnected", "remote", r.RemoteAddr)
			return
		case ev := <-events:
			if err := h.write(ctx, conn, ev); err != nil {
				slog.Warn("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (h *Hub) write(ctx context.Context, conn *websocket.Conn, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, h.writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ev)
}
