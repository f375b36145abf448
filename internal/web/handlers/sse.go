package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kozaktomas/face-attendance/internal/session"
)

// keepAliveInterval is how often an SSE comment is sent to detect dead
// kiosk connections.
const keepAliveInterval = 30 * time.Second

// Broadcaster fans session events out to connected SSE clients. It
// implements session.Notifier; Notify never blocks, slow clients simply
// miss events.
type Broadcaster struct {
	mu        sync.Mutex
	listeners map[chan session.Event]string // channel -> class ID filter, "" means all
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[chan session.Event]string),
	}
}

// Notify delivers an event to every listener subscribed to its class.
func (b *Broadcaster) Notify(event session.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch, classID := range b.listeners {
		if classID != "" && classID != event.ClassID {
			continue
		}
		select {
		case ch <- event:
		default:
			// Listener buffer full, drop rather than stall the session engine.
		}
	}
}

// Subscribe registers a listener. An empty classID receives events for
// every class.
func (b *Broadcaster) Subscribe(classID string) chan session.Event {
	ch := make(chan session.Event, 64)
	b.mu.Lock()
	b.listeners[ch] = classID
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener.
func (b *Broadcaster) Unsubscribe(ch chan session.Event) {
	b.mu.Lock()
	delete(b.listeners, ch)
	b.mu.Unlock()
}

// ListenerCount returns the number of connected listeners.
func (b *Broadcaster) ListenerCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.listeners)
}

// EventsHandler streams session events over SSE.
type EventsHandler struct {
	broadcaster *Broadcaster
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(broadcaster *Broadcaster) *EventsHandler {
	return &EventsHandler{broadcaster: broadcaster}
}

// Stream handles GET /events. The optional class_id query parameter
// restricts the stream to one class.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := h.broadcaster.Subscribe(r.URL.Query().Get("class_id"))
	defer h.broadcaster.Unsubscribe(ch)

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-keepAlive.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case event := <-ch:
			sendSSEEvent(w, flusher, string(event.Type), event)
		}
	}
}

// sendSSEEvent writes one SSE frame and flushes it.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", eventType, payload)
	flusher.Flush()
}
