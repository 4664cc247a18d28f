package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/omriShneor/clarity/internal/sse"
)

// Canned calendar replies, one per response shape the chat UI must handle
var (
	dayHeaderReply = map[string]string{
		"spokenResponse": "You have 2 events this week.",
		"webResponse": "**Your Week**\n" +
			"**Monday**\n" +
			"• 9:00 AM: Standup\n" +
			"• 1:00 PM: Design review\n" +
			"**Tuesday**\n" +
			"*No events scheduled*\n" +
			"You can view it [here](https://calendar.example/week)",
	}
	eventListReply = []map[string]interface{}{
		{"json": map[string]string{
			"spokenResponse": "You have 2 events next week: Monday, Jun 9 at 7:00 AM: Train Laurie, Wednesday, Jun 11 at 3:00 PM: Dentist",
		}},
	}
	plainReply = map[string]string{
		"message": "Here's the link: https://calendar.example/today",
	}
)

// pickShape chooses a canned reply from an explicit ?shape= or from words in the question
func pickShape(r *http.Request, input string) string {
	if shape := r.URL.Query().Get("shape"); shape != "" {
		return shape
	}
	lower := strings.ToLower(input)
	switch {
	case strings.Contains(lower, "fail"):
		return "error"
	case strings.Contains(lower, "empty"):
		return "empty"
	case strings.Contains(lower, "next"):
		return "event_list"
	case strings.Contains(lower, "link"):
		return "plain"
	default:
		return "day_header"
	}
}

// handleFakeWebhook imitates the calendar automation webhook
func handleFakeWebhook(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"sessionId"`
		Action    string `json:"action"`
		ChatInput string `json:"chatInput"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	switch pickShape(r, req.ChatInput) {
	case "error":
		http.Error(w, "workflow failed", http.StatusInternalServerError)
	case "empty":
		respondJSON(w, http.StatusOK, []interface{}{})
	case "event_list":
		respondJSON(w, http.StatusOK, eventListReply)
	case "plain":
		respondJSON(w, http.StatusOK, plainReply)
	default:
		respondJSON(w, http.StatusOK, dayHeaderReply)
	}
}

// handleFakeLLM imitates the streaming Messages API by echoing the last user turn word by word
func handleFakeLLM(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	last := ""
	for _, m := range req.Messages {
		if m.Role == "user" {
			last = m.Content
		}
	}

	if _, ok := sse.PrepareStream(w); !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	sse.WriteEvent(w, "message_start", `{"type":"message_start"}`)
	for i, word := range strings.Fields("You said: " + last) {
		if i > 0 {
			word = " " + word
		}
		data, _ := json.Marshal(map[string]interface{}{
			"type":  "content_block_delta",
			"index": 0,
			"delta": map[string]string{"type": "text_delta", "text": word},
		})
		sse.WriteEvent(w, "content_block_delta", string(data))
	}
	sse.WriteEvent(w, "message_stop", `{"type":"message_stop"}`)
}

func fakeUpstreamURLs(port int) (webhookURL, llmURL string) {
	base := fmt.Sprintf("http://localhost:%d", port)
	return base + "/fake/webhook", base + "/fake/llm"
}
