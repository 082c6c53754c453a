package stream

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"

	"github.com/p-n-ai/pai-coursework/internal/resolve"
)

func transition(unitID string, to resolve.State) resolve.Transition {
	return resolve.Transition{RunID: uuid.New(), UnitID: unitID, From: resolve.StatePending, To: to, At: time.Now()}
}

func TestHub_SubscribeFiltersByUnit(t *testing.T) {
	h := NewHub()
	all, cancelAll := h.Subscribe("")
	defer cancelAll()
	one, cancelOne := h.Subscribe("u1")
	defer cancelOne()

	h.RecordTransition(t.Context(), transition("u1", resolve.StateClassifying))
	h.RecordTransition(t.Context(), transition("u2", resolve.StateClassifying))

	if got := len(all); got != 2 {
		t.Errorf("unfiltered subscriber got %d events, want 2", got)
	}
	if got := len(one); got != 1 {
		t.Errorf("filtered subscriber got %d events, want 1", got)
	}
	ev := <-one
	if ev.Type != EventTransition || ev.UnitID != "u1" {
		t.Errorf("event = %+v", ev)
	}
}

func TestHub_SlowSubscriberDoesNotBlock(t *testing.T) {
	h := NewHub()
	h.buffer = 1
	events, cancel := h.Subscribe("")
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 10; i++ {
			h.RecordOutcome(t.Context(), resolve.Outcome{UnitID: "u"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publishing blocked on a full subscriber")
	}
	if len(events) != 1 {
		t.Errorf("buffered events = %d, want 1", len(events))
	}
}

func TestHub_CancelRemovesSubscriber(t *testing.T) {
	h := NewHub()
	_, cancel := h.Subscribe("")
	if h.Subscribers() != 1 {
		t.Fatalf("Subscribers() = %d, want 1", h.Subscribers())
	}
	cancel()
	cancel()
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers() = %d after cancel, want 0", h.Subscribers())
	}
}

func TestHub_ServeHTTP(t *testing.T) {
	h := NewHub()
	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx := t.Context()
	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"?unit_id=u1", nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	defer conn.CloseNow()

	deadline := time.Now().Add(2 * time.Second)
	for h.Subscribers() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("server never subscribed")
		}
		time.Sleep(5 * time.Millisecond)
	}

	h.RecordTransition(ctx, transition("u2", resolve.StateClassifying))
	h.RecordTransition(ctx, transition("u1", resolve.StateGenerating))

	var ev Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if ev.UnitID != "u1" || ev.Transition == nil || ev.Transition.To != resolve.StateGenerating {
		t.Errorf("event = %+v", ev)
	}

	conn.Close(websocket.StatusNormalClosure, "")
	deadline = time.Now().Add(2 * time.Second)
	for h.Subscribers() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber not released after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
