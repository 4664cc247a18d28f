package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/omriShneor/clarity/internal/logging"
)

const (
	defaultAPIURL      = "https://api.anthropic.com/v1/messages"
	defaultModel       = "claude-sonnet-4-20250514"
	defaultMaxTokens   = 1024
	defaultTemperature = 0.7
	anthropicVersion   = "2023-06-01"
)

// ErrNotConfigured is returned when no API key is set
var ErrNotConfigured = errors.New("language model API key not configured")

// Roles accepted by the Messages API
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Turn is one message of the conversation sent to the model
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is a streaming Claude API client for general chat
type Client struct {
	apiKey      string
	model       string
	apiURL      string
	httpClient  *http.Client
	temperature float64
	logger      zerolog.Logger
}

// NewClient creates a new Claude API client
func NewClient(apiKey, model string, temperature float64) *Client {
	if model == "" {
		model = defaultModel
	}
	if temperature <= 0 {
		temperature = defaultTemperature
	}

	return &Client{
		apiKey:      apiKey,
		model:       model,
		apiURL:      defaultAPIURL,
		temperature: temperature,
		httpClient: &http.Client{
			Timeout: 120 * time.Second,
		},
		logger: logging.For("llm"),
	}
}

// WithAPIURL points the client at a different Messages endpoint
func (c *Client) WithAPIURL(url string) *Client {
	if url != "" {
		c.apiURL = url
	}
	return c
}

// IsConfigured returns true if the client has an API key
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

type anthropicRequest struct {
	Model       string  `json:"model"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
	System      string  `json:"system"`
	Messages    []Turn  `json:"messages"`
	Stream      bool    `json:"stream"`
}

// streamEvent covers the fields used from every server-sent event type
type streamEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Stream sends the conversation and calls onDelta for every text fragment as
// it arrives. It returns the full reply.
func (c *Client) Stream(ctx context.Context, turns []Turn, onDelta func(string)) (string, error) {
	if !c.IsConfigured() {
		return "", ErrNotConfigured
	}

	messages := normalizeTurns(turns)
	if len(messages) == 0 {
		return "", fmt.Errorf("no user message to send")
	}

	req := anthropicRequest{
		Model:       c.model,
		MaxTokens:   defaultMaxTokens,
		Temperature: c.temperature,
		System:      SystemPrompt,
		Messages:    messages,
		Stream:      true,
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.apiURL, bytes.NewReader(reqBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	text, err := readStream(resp.Body, onDelta)
	if err != nil {
		return text, err
	}

	c.logger.Debug().Int("turns", len(messages)).Int("chars", len(text)).Msg("model reply complete")
	return text, nil
}

// readStream consumes text/event-stream frames and accumulates text deltas
func readStream(r io.Reader, onDelta func(string)) (string, error) {
	var full strings.Builder

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" || data == "[DONE]" {
			continue
		}

		var event streamEvent
		if err := json.Unmarshal([]byte(data), &event); err != nil {
			return full.String(), fmt.Errorf("failed to unmarshal stream event: %w", err)
		}

		switch event.Type {
		case "content_block_delta":
			if event.Delta.Type != "text_delta" || event.Delta.Text == "" {
				continue
			}
			full.WriteString(event.Delta.Text)
			if onDelta != nil {
				onDelta(event.Delta.Text)
			}
		case "error":
			if event.Error != nil {
				return full.String(), fmt.Errorf("API error: %s - %s", event.Error.Type, event.Error.Message)
			}
			return full.String(), fmt.Errorf("API error in stream")
		case "message_stop":
			return full.String(), nil
		}
	}

	if err := scanner.Err(); err != nil {
		return full.String(), fmt.Errorf("failed to read stream: %w", err)
	}

	if full.Len() == 0 {
		return "", fmt.Errorf("empty response from API")
	}
	return full.String(), nil
}

// normalizeTurns drops blank and leading assistant turns and merges
// consecutive turns of the same role, since the API requires the
// conversation to start with the user and alternate roles.
func normalizeTurns(turns []Turn) []Turn {
	var out []Turn
	for _, t := range turns {
		content := strings.TrimSpace(t.Content)
		if content == "" {
			continue
		}
		if t.Role != RoleUser && t.Role != RoleAssistant {
			continue
		}
		if len(out) == 0 && t.Role != RoleUser {
			continue
		}
		if len(out) > 0 && out[len(out)-1].Role == t.Role {
			out[len(out)-1].Content += "\n\n" + content
			continue
		}
		out = append(out, Turn{Role: t.Role, Content: content})
	}

	// a conversation must end with the user
	for len(out) > 0 && out[len(out)-1].Role != RoleUser {
		out = out[:len(out)-1]
	}
	return out
}
