// Package calformat turns free-text calendar answers into a structured,
// rendering-agnostic document.
//
// Calendar answers arrive as prose whose wording is not contractually fixed.
// Two shapes are recognized: a markdown layout with bold day headers and
// bullet lines, and a single "You have N events ...: Day, Date at Time: Title,
// ..." sentence. Anything else degrades to plain text with linkified URLs.
// Every function in this package is pure and safe for concurrent use.
package calformat

// Options tunes the interpreter
type Options struct {
	// DisambiguateDuplicateDays keeps a repeated day header as a separate
	// group ("Monday (2)") instead of replacing the earlier group's lines.
	DisambiguateDuplicateDays bool
}

// Formatter interprets raw calendar responses
type Formatter struct {
	opts Options
}

// New creates a Formatter with the given options
func New(opts Options) *Formatter {
	return &Formatter{opts: opts}
}

var defaultFormatter = New(Options{})

// Format interprets raw with default options
func Format(raw string) FormattedResponse {
	return defaultFormatter.Format(raw)
}

// Format picks the first shape whose trigger matches raw. Only one parser
// runs per input; when the event-list parser finds no events the response
// falls back to plain text.
func (f *Formatter) Format(raw string) FormattedResponse {
	if resp, ok := parseDayHeaderFormat(raw, f.opts.DisambiguateDuplicateDays); ok {
		return resp
	}
	if _, resp, ok := parseEventListFormat(raw); ok {
		return resp
	}
	return Plain(ExtractLinks(raw))
}

// FormatFor is Format for a given rendering context. Non-interactive passes
// get raw back untouched as a single text segment so that an initial render
// never disagrees with the interactive one that follows.
func (f *Formatter) FormatFor(raw string, interactive bool) FormattedResponse {
	if !interactive {
		return Plain([]Segment{TextSegment(raw)})
	}
	return f.Format(raw)
}

// Shape names the parser Format uses for raw, for logging at call sites
func Shape(raw string) string {
	switch {
	case isDayHeaderShape(raw):
		return "day_header"
	case isEventListShape(raw) && len(extractEvents(raw)) > 0:
		return "event_list"
	default:
		return "plain"
	}
}

// ParseEvents returns the events of a flat event-list response, or nil when
// raw is not in that shape.
func ParseEvents(raw string) []ParsedEvent {
	events, _, ok := parseEventListFormat(raw)
	if !ok {
		return nil
	}
	return events
}
