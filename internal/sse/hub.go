package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
)

// subscriberBuffer is how many updates a slow subscriber may lag behind before updates are dropped
const subscriberBuffer = 10

// Update represents an SSE update event
type Update struct {
	Type string `json:"type"` // "message", "delta", "error"
	Data string `json:"data"`
}

// Hub fans out per-session updates to SSE subscribers
type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan Update]struct{}
}

// NewHub creates an empty hub
func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan Update]struct{}),
	}
}

// Subscribe creates a new channel for receiving updates of a session
func (h *Hub) Subscribe(sessionID string) chan Update {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Update, subscriberBuffer)
	subs, ok := h.subscribers[sessionID]
	if !ok {
		subs = make(map[chan Update]struct{})
		h.subscribers[sessionID] = subs
	}
	subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscriber channel and closes it
func (h *Hub) Unsubscribe(sessionID string, ch chan Update) {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs, ok := h.subscribers[sessionID]
	if !ok {
		return
	}
	if _, ok := subs[ch]; !ok {
		return
	}
	delete(subs, ch)
	close(ch)
	if len(subs) == 0 {
		delete(h.subscribers, sessionID)
	}
}

// Publish sends an update to every subscriber of a session without blocking
func (h *Hub) Publish(sessionID string, update Update) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.subscribers[sessionID] {
		select {
		case ch <- update:
		default:
			// Channel full, skip
		}
	}
}

// PublishJSON marshals v as the update data
func (h *Hub) PublishJSON(sessionID, updateType string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal update: %w", err)
	}
	h.Publish(sessionID, Update{Type: updateType, Data: string(data)})
	return nil
}

// SubscriberCount returns the number of live subscribers of a session
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers[sessionID])
}

// WriteEvent writes one text/event-stream frame and flushes it when w supports flushing
func WriteEvent(w io.Writer, event, data string) error {
	var b strings.Builder
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	for _, line := range strings.Split(data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return err
	}
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	return nil
}

// PrepareStream sets the event-stream headers and reports whether w can stream
func PrepareStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}
