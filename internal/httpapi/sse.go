package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	otelx "github.com/MeenalAppSphere/sprintd/internal/otel"
	"github.com/MeenalAppSphere/sprintd/pkg/models"
)

// Event types published on /stream.
const (
	EventSprintUpdate = "sprint_update"
	EventTaskUpdate   = "task_update"
	EventReportReady  = "report_ready"
)

// Hub fans mutation events out to SSE subscribers. Subscribers that cannot
// keep up are dropped rather than blocking publishers.
type Hub struct {
	mu   sync.Mutex
	subs map[chan []byte]struct{}
	log  *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{subs: make(map[chan []byte]struct{}), log: log}
}

func (h *Hub) Subscribe() chan []byte {
	ch := make(chan []byte, models.DefaultSSEChannelBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) Unsubscribe(ch chan []byte) {
	h.mu.Lock()
	if _, ok := h.subs[ch]; ok {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Publish sends a typed event to every subscriber, dropping the slow ones.
func (h *Hub) Publish(eventType string, data any) {
	payload, err := json.Marshal(data)
	if err != nil {
		h.log.Error("sse marshal failed", "type", eventType, "err", err)
		return
	}
	msg := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", eventType, payload))

	h.mu.Lock()
	var dropped []chan []byte
	for ch := range h.subs {
		select {
		case ch <- msg:
		default:
			dropped = append(dropped, ch)
		}
	}
	for _, ch := range dropped {
		delete(h.subs, ch)
		close(ch)
	}
	h.mu.Unlock()

	otelx.RecordSSEEvent(context.Background(), eventType)
	if len(dropped) > 0 {
		h.log.Warn("dropped slow sse subscribers", "count", len(dropped))
	}
}

// SubscriberCount is used by tests and the health payload.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (a *App) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := a.hub.Subscribe()
	defer a.hub.Unsubscribe(ch)
	otelx.RecordSSEConnection(r.Context(), 1)
	defer otelx.RecordSSEConnection(r.Context(), -1)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	keepalive := time.NewTicker(25 * time.Second)
	defer keepalive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if _, err := w.Write(msg); err != nil {
				return
			}
			flusher.Flush()
		case <-keepalive.C:
			if _, err := fmt.Fprint(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
