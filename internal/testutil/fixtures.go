package testutil

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DayHeaderBuilder builds calendar replies in the bold day-header layout
type DayHeaderBuilder struct {
	title string
	lines []string
}

// NewDayHeaderBuilder creates a builder with a default title
func NewDayHeaderBuilder() *DayHeaderBuilder {
	return &DayHeaderBuilder{title: "Your Week"}
}

// WithTitle sets the bold first line. An empty title omits it.
func (b *DayHeaderBuilder) WithTitle(title string) *DayHeaderBuilder {
	b.title = title
	return b
}

// Day starts a new day section
func (b *DayHeaderBuilder) Day(label string) *DayHeaderBuilder {
	b.lines = append(b.lines, "**"+label+"**")
	return b
}

// Event adds a bulleted event under the current day
func (b *DayHeaderBuilder) Event(time, title string) *DayHeaderBuilder {
	b.lines = append(b.lines, fmt.Sprintf("• %s: %s", time, title))
	return b
}

// Note adds an italic note under the current day
func (b *DayHeaderBuilder) Note(text string) *DayHeaderBuilder {
	b.lines = append(b.lines, "*"+text+"*")
	return b
}

// Text adds a free text line
func (b *DayHeaderBuilder) Text(text string) *DayHeaderBuilder {
	b.lines = append(b.lines, text)
	return b
}

// Build returns the reply text
func (b *DayHeaderBuilder) Build() string {
	lines := b.lines
	if b.title != "" {
		lines = append([]string{"**" + b.title + "**"}, lines...)
	}
	return strings.Join(lines, "\n")
}

// EventListBuilder builds single-sentence "You have N events ..." replies
type EventListBuilder struct {
	period string
	events []string
	tail   string
}

// NewEventListBuilder creates a builder without a period
func NewEventListBuilder() *EventListBuilder {
	return &EventListBuilder{}
}

// WithPeriod sets the phrase after the count, e.g. "next week"
func (b *EventListBuilder) WithPeriod(period string) *EventListBuilder {
	b.period = period
	return b
}

// Event adds an entry such as ("Monday", "Jun 9", "7:00 AM", "Gym")
func (b *EventListBuilder) Event(weekday, date, time, title string) *EventListBuilder {
	b.events = append(b.events, fmt.Sprintf("%s, %s at %s: %s", weekday, date, time, title))
	return b
}

// WithTail appends text after the events, e.g. a calendar link
func (b *EventListBuilder) WithTail(tail string) *EventListBuilder {
	b.tail = tail
	return b
}

// Build returns the reply sentence
func (b *EventListBuilder) Build() string {
	noun := "events"
	if len(b.events) == 1 {
		noun = "event"
	}

	head := fmt.Sprintf("You have %d %s", len(b.events), noun)
	if b.period != "" {
		head += " " + b.period
	}

	text := head + ": " + strings.Join(b.events, ", ")
	if b.tail != "" {
		text += " " + b.tail
	}
	return text
}

// ReplyPayload builds webhook response bodies
type ReplyPayload struct {
	spoken  string
	field   string
	web     string
	wrapped bool
}

// NewReplyPayload creates a payload answering with spoken text
func NewReplyPayload(spoken string) *ReplyPayload {
	return &ReplyPayload{spoken: spoken, field: "spokenResponse"}
}

// WithWebResponse adds the richer text shown on screen
func (p *ReplyPayload) WithWebResponse(web string) *ReplyPayload {
	p.web = web
	return p
}

// AsMessage puts the spoken text under "message" instead of "spokenResponse"
func (p *ReplyPayload) AsMessage() *ReplyPayload {
	p.field = "message"
	return p
}

// Wrapped returns the payload as [{"json": {...}}]
func (p *ReplyPayload) Wrapped() *ReplyPayload {
	p.wrapped = true
	return p
}

// JSON returns the encoded body
func (p *ReplyPayload) JSON() string {
	obj := map[string]string{p.field: p.spoken}
	if p.web != "" {
		obj["webResponse"] = p.web
	}

	var v interface{} = obj
	if p.wrapped {
		v = []map[string]interface{}{{"json": obj}}
	}

	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(data)
}
