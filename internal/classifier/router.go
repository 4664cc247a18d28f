package classifier

import (
	"regexp"
	"strings"
	"unicode/utf16"
)

// MaxInputLength is the longest message that is still sent to the calendar
// webhook, in UTF-16 code units as browsers count string length
const MaxInputLength = 5000

// Decision is the router verdict for a single message
type Decision struct {
	Calendar bool
	Reason   string
}

// Router decides whether a message is a calendar query.
type Router interface {
	Route(text string) Decision
}

var unsafePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<script>`),
	regexp.MustCompile(`(?i)javascript:`),
	regexp.MustCompile(`(?i)data:text/html`),
}

// SafetyRouter sends every well-formed message to the calendar and rejects
// blank, oversized, or script-bearing input.
type SafetyRouter struct{}

func NewSafetyRouter() *SafetyRouter {
	return &SafetyRouter{}
}

func (r *SafetyRouter) Route(text string) Decision {
	return safetyGate(text)
}

func safetyGate(text string) Decision {
	if strings.TrimSpace(text) == "" {
		return Decision{Calendar: false, Reason: "empty input"}
	}
	if inputLength(text) > MaxInputLength {
		return Decision{Calendar: false, Reason: "input too long"}
	}
	for _, p := range unsafePatterns {
		if p.MatchString(text) {
			return Decision{Calendar: false, Reason: "unsafe content"}
		}
	}
	return Decision{Calendar: true, Reason: "passed safety checks"}
}

// inputLength counts UTF-16 code units, so characters outside the Basic
// Multilingual Plane count twice
func inputLength(text string) int {
	n := 0
	for _, r := range text {
		n += utf16.RuneLen(r)
	}
	return n
}

// KeywordRouter is a lightweight deterministic router that only sends
// messages with calendar cues to the webhook.
type KeywordRouter struct{}

func NewKeywordRouter() *KeywordRouter {
	return &KeywordRouter{}
}

var calendarHints = []string{
	"calendar", "schedule", "meeting", "appointment", "event",
	"agenda", "busy", "free time", "available", "availability",
	"today", "tomorrow", "tonight", "yesterday", "week", "month",
	"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday",
	"what's on", "whats on", "what do i have", "plans", "remind", "book",
}

func (r *KeywordRouter) Route(text string) Decision {
	gate := safetyGate(text)
	if !gate.Calendar {
		return gate
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	if containsAny(normalized, calendarHints) {
		return Decision{Calendar: true, Reason: "contains calendar cues"}
	}
	return Decision{Calendar: false, Reason: "no calendar cues"}
}

func containsAny(text string, values []string) bool {
	for _, v := range values {
		if strings.Contains(text, v) {
			return true
		}
	}
	return false
}

// New returns the router for a routing mode name, defaulting to SafetyRouter
func New(mode string) Router {
	if mode == "keywords" {
		return NewKeywordRouter()
	}
	return NewSafetyRouter()
}
