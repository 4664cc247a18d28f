package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/omriShneor/clarity/internal/logging"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRetryWait = 500 * time.Millisecond
	fallbackSpoken   = "I found your calendar information."
	legacyAction     = "sendMessage"
)

var (
	// ErrNotConfigured is returned when no webhook URL is set
	ErrNotConfigured = errors.New("calendar webhook URL not configured")
	// ErrEmptyReply is returned when the webhook answers with null or an empty array
	ErrEmptyReply = errors.New("calendar webhook returned an empty reply")
)

// StatusError is returned when the webhook answers with a non-2xx status
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.Code)
}

// Options tunes the HTTP behaviour of the client
type Options struct {
	Timeout       time.Duration
	Retries       int
	RetryWait     time.Duration
	LegacyPayload bool
}

// Client talks to the calendar automation webhook
type Client struct {
	url    string
	legacy bool
	http   *resty.Client
	logger zerolog.Logger
}

type queryRequest struct {
	SessionID string `json:"sessionId,omitempty"`
	Action    string `json:"action,omitempty"`
	ChatInput string `json:"chatInput"`
}

// NewClient creates a webhook client. An empty url yields a client whose
// queries fail with ErrNotConfigured.
func NewClient(url string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.RetryWait <= 0 {
		opts.RetryWait = defaultRetryWait
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}

	logger := logging.For("webhook")

	httpClient := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(opts.Retries).
		SetRetryWaitTime(opts.RetryWait).
		SetRetryMaxWaitTime(opts.RetryWait * 4).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			return err != nil || r.StatusCode() >= http.StatusInternalServerError
		}).
		AddRetryHook(func(r *resty.Response, err error) {
			event := logger.Warn()
			if err != nil {
				event = event.Err(err)
			} else {
				event = event.Int("status", r.StatusCode())
			}
			event.Msg("retrying calendar webhook")
		})

	return &Client{
		url:    url,
		legacy: opts.LegacyPayload,
		http:   httpClient,
		logger: logger,
	}
}

// IsConfigured returns true if the webhook URL is set
func (c *Client) IsConfigured() bool {
	return c.url != ""
}

// Query sends a chat message to the webhook and parses its reply
func (c *Client) Query(ctx context.Context, sessionID, input string) (*Reply, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	body := queryRequest{ChatInput: input}
	if c.legacy {
		body.SessionID = sessionID
		body.Action = legacyAction
	}

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.url)
	if err != nil {
		return nil, fmt.Errorf("failed to send webhook request: %w", err)
	}

	c.logger.Debug().
		Str("session_id", sessionID).
		Int("status", resp.StatusCode()).
		Dur("elapsed", time.Since(start)).
		Msg("calendar webhook responded")

	if !resp.IsSuccess() {
		return nil, &StatusError{Code: resp.StatusCode(), Status: resp.Status()}
	}

	return parseReply(resp.Body())
}

// parseReply accepts either a JSON object or an array whose first element is
// the reply, optionally wrapped in a "json" field.
func parseReply(body []byte) (*Reply, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, ErrEmptyReply
	}

	var payload map[string]json.RawMessage
	if trimmed[0] == '[' {
		var items []map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, fmt.Errorf("failed to parse webhook response: %w", err)
		}
		if len(items) == 0 {
			return nil, ErrEmptyReply
		}
		payload = items[0]
		if inner, ok := payload["json"]; ok {
			var unwrapped map[string]json.RawMessage
			if err := json.Unmarshal(inner, &unwrapped); err == nil && unwrapped != nil {
				payload = unwrapped
			}
		}
	} else if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook response: %w", err)
	}

	if payload == nil {
		return nil, ErrEmptyReply
	}

	reply := &Reply{Spoken: fallbackSpoken}
	for _, key := range []string{"spokenResponse", "message", "response"} {
		if s, ok := stringField(payload, key); ok && s != "" {
			reply.Spoken = s
			break
		}
	}
	if s, ok := stringField(payload, "webResponse"); ok {
		reply.WebResponse = s
	}

	return reply, nil
}

func stringField(payload map[string]json.RawMessage, key string) (string, bool) {
	raw, ok := payload[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}
