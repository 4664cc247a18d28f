package testutil

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// WebhookCall records a request received by MockWebhook
type WebhookCall struct {
	SessionID string `json:"sessionId"`
	Action    string `json:"action"`
	ChatInput string `json:"chatInput"`
}

type webhookReply struct {
	status int
	body   string
}

// MockWebhook is a fake calendar webhook. Queued replies are served in order,
// then the default reply is repeated.
type MockWebhook struct {
	mu       sync.Mutex
	server   *httptest.Server
	queue    []webhookReply
	fallback webhookReply
	calls    []WebhookCall
}

// NewMockWebhook starts a fake webhook that is closed when the test ends
func NewMockWebhook(t *testing.T) *MockWebhook {
	t.Helper()

	m := &MockWebhook{
		fallback: webhookReply{
			status: http.StatusOK,
			body:   NewReplyPayload("You have no events scheduled.").JSON(),
		},
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

// URL returns the webhook endpoint
func (m *MockWebhook) URL() string {
	return m.server.URL + "/webhook/calendar"
}

// Reply queues a 200 response with the given body
func (m *MockWebhook) Reply(body string) *MockWebhook {
	return m.ReplyStatus(http.StatusOK, body)
}

// ReplyStatus queues a response with an explicit status
func (m *MockWebhook) ReplyStatus(status int, body string) *MockWebhook {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, webhookReply{status: status, body: body})
	return m
}

// Calls returns the requests received so far
func (m *MockWebhook) Calls() []WebhookCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]WebhookCall, len(m.calls))
	copy(out, m.calls)
	return out
}

func (m *MockWebhook) handle(w http.ResponseWriter, r *http.Request) {
	var call WebhookCall
	_ = json.NewDecoder(r.Body).Decode(&call)

	m.mu.Lock()
	m.calls = append(m.calls, call)
	reply := m.fallback
	if len(m.queue) > 0 {
		reply = m.queue[0]
		m.queue = m.queue[1:]
	}
	m.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reply.status)
	io.WriteString(w, reply.body)
}

// ModelRequest is the part of a model request the tests inspect
type ModelRequest struct {
	Model    string `json:"model"`
	System   string `json:"system"`
	Stream   bool   `json:"stream"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// MockModel is a fake streaming model API. Each request is answered with the
// configured deltas as content_block_delta events.
type MockModel struct {
	mu       sync.Mutex
	server   *httptest.Server
	deltas   []string
	failWith string
	requests []ModelRequest
}

// NewMockModel starts a fake model API that is closed when the test ends
func NewMockModel(t *testing.T) *MockModel {
	t.Helper()

	m := &MockModel{deltas: []string{"Hello", " there!"}}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

// URL returns the messages endpoint
func (m *MockModel) URL() string {
	return m.server.URL + "/v1/messages"
}

// Respond sets the text fragments streamed for every request
func (m *MockModel) Respond(deltas ...string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deltas = deltas
	m.failWith = ""
	return m
}

// FailWith makes the stream end with an error event carrying message
func (m *MockModel) FailWith(message string) *MockModel {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWith = message
	return m
}

// Requests returns the requests received so far
func (m *MockModel) Requests() []ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ModelRequest, len(m.requests))
	copy(out, m.requests)
	return out
}

func (m *MockModel) handle(w http.ResponseWriter, r *http.Request) {
	var req ModelRequest
	_ = json.NewDecoder(r.Body).Decode(&req)

	m.mu.Lock()
	m.requests = append(m.requests, req)
	deltas := append([]string(nil), m.deltas...)
	failWith := m.failWith
	m.mu.Unlock()

	w.Header().Set("Content-Type", "text/event-stream")
	flusher, _ := w.(http.Flusher)

	writeEvent := func(v interface{}) {
		data, _ := json.Marshal(v)
		fmt.Fprintf(w, "data: %s\n\n", data)
		if flusher != nil {
			flusher.Flush()
		}
	}

	writeEvent(map[string]string{"type": "message_start"})
	for _, d := range deltas {
		writeEvent(map[string]interface{}{
			"type":  "content_block_delta",
			"delta": map[string]string{"type": "text_delta", "text": d},
		})
	}
	if failWith != "" {
		writeEvent(map[string]interface{}{
			"type":  "error",
			"error": map[string]string{"type": "overloaded_error", "message": failWith},
		})
		return
	}
	writeEvent(map[string]string{"type": "message_stop"})
}

// LastUserMessage returns the content of the final user turn of the latest request
func (m *MockModel) LastUserMessage() string {
	reqs := m.Requests()
	if len(reqs) == 0 {
		return ""
	}
	msgs := reqs[len(reqs)-1].Messages
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == "user" {
			return strings.TrimSpace(msgs[i].Content)
		}
	}
	return ""
}
