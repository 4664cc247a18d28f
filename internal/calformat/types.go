package calformat

import "encoding/json"

// Kind identifies which variant of FormattedResponse is populated
type Kind string

const (
	KindStructured Kind = "structured"
	KindPlain      Kind = "plain"
)

// SegmentKind identifies a text run or a link inside a rendered line
type SegmentKind string

const (
	SegmentText SegmentKind = "text"
	SegmentLink SegmentKind = "link"
)

// LineKind identifies how a line inside a day group should be displayed
type LineKind string

const (
	LineEvent LineKind = "event"
	LineNote  LineKind = "note"
	LineText  LineKind = "text"
)

// Segment is either a plain text run or a link reference.
// Text segments use Value; link segments use Display and Href.
type Segment struct {
	Kind    SegmentKind `json:"kind"`
	Value   string      `json:"value,omitempty"`
	Display string      `json:"display,omitempty"`
	Href    string      `json:"href,omitempty"`
}

// TextSegment returns a text segment holding value
func TextSegment(value string) Segment {
	return Segment{Kind: SegmentText, Value: value}
}

// LinkSegment returns a link segment
func LinkSegment(display, href string) Segment {
	return Segment{Kind: SegmentLink, Display: display, Href: href}
}

// Line is a single entry of a day group
type Line struct {
	Kind     LineKind  `json:"kind"`
	Time     string    `json:"time,omitempty"`
	Title    string    `json:"title,omitempty"`
	Text     string    `json:"text,omitempty"`
	Segments []Segment `json:"segments,omitempty"`
}

// EventLine returns a line holding a time and an optional title
func EventLine(time, title string) Line {
	return Line{Kind: LineEvent, Time: time, Title: title}
}

// NoteLine returns an aside line
func NoteLine(text string) Line {
	return Line{Kind: LineNote, Text: text}
}

// TextLine returns a prose line, already split into link segments
func TextLine(segments []Segment) Line {
	return Line{Kind: LineText, Segments: segments}
}

// DayGroup is the unit of display grouping, keyed by its label
type DayGroup struct {
	Label string `json:"label"`
	Lines []Line `json:"lines"`
}

// ParsedEvent is one event recovered from a flat event-list sentence
type ParsedEvent struct {
	Day         string `json:"day"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Title       string `json:"title"`
	MatchedText string `json:"matched_text"`
}

// GroupKey returns the "<day>, <date>" key events are grouped by
func (e ParsedEvent) GroupKey() string {
	return e.Day + ", " + e.Date
}

// FormattedResponse is the interpreter's output.
// Structured responses populate Title and Groups, plain responses populate Segments.
type FormattedResponse struct {
	Kind     Kind       `json:"kind"`
	Title    string     `json:"title,omitempty"`
	Groups   []DayGroup `json:"groups,omitempty"`
	Segments []Segment  `json:"segments,omitempty"`
}

// MarshalJSON emits every field of the response's variant, including an
// empty title or group list.
func (r FormattedResponse) MarshalJSON() ([]byte, error) {
	if r.Kind == KindStructured {
		groups := make([]DayGroup, len(r.Groups))
		for i, g := range r.Groups {
			if g.Lines == nil {
				g.Lines = []Line{}
			}
			groups[i] = g
		}
		return json.Marshal(struct {
			Kind   Kind       `json:"kind"`
			Title  string     `json:"title"`
			Groups []DayGroup `json:"groups"`
		}{r.Kind, r.Title, groups})
	}

	segments := r.Segments
	if segments == nil {
		segments = []Segment{}
	}
	return json.Marshal(struct {
		Kind     Kind      `json:"kind"`
		Segments []Segment `json:"segments"`
	}{r.Kind, segments})
}

// IsStructured reports whether the response carries day groups
func (r FormattedResponse) IsStructured() bool {
	return r.Kind == KindStructured
}

// Structured builds a structured response
func Structured(title string, groups []DayGroup) FormattedResponse {
	return FormattedResponse{Kind: KindStructured, Title: title, Groups: groups}
}

// Plain builds a plain response
func Plain(segments []Segment) FormattedResponse {
	return FormattedResponse{Kind: KindPlain, Segments: segments}
}
