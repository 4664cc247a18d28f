package calformat

import (
	"regexp"
	"strings"
)

const (
	linkDisplay    = "here"
	viewItPreamble = "You can view it "
)

var (
	viewItPattern  = regexp.MustCompile(`(?i)You can view it \[here\]\((https?://[^)]+)\)`)
	bareURLPattern = regexp.MustCompile(`https?://[^\s)\]]+`)
)

// ExtractLinks splits text into text and link segments.
//
// "You can view it [here](URL)" phrases take precedence: when at least one is
// present only those are converted and bare URLs are left untouched. Otherwise
// every bare http(s) URL becomes a link displayed as "here". Text without any
// URL comes back as a single text segment.
func ExtractLinks(text string) []Segment {
	if matches := viewItPattern.FindAllStringSubmatchIndex(text, -1); len(matches) > 0 {
		segments := make([]Segment, 0, len(matches)*3+1)
		last := 0
		for _, m := range matches {
			if m[0] > last {
				segments = append(segments, TextSegment(text[last:m[0]]))
			}
			segments = append(segments,
				TextSegment(viewItPreamble),
				LinkSegment(linkDisplay, text[m[2]:m[3]]),
			)
			last = m[1]
		}
		if last < len(text) {
			segments = append(segments, TextSegment(text[last:]))
		}
		return segments
	}

	matches := bareURLPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return []Segment{TextSegment(text)}
	}

	segments := make([]Segment, 0, len(matches)*2+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			segments = append(segments, TextSegment(text[last:m[0]]))
		}
		segments = append(segments, LinkSegment(linkDisplay, text[m[0]:m[1]]))
		last = m[1]
	}
	if last < len(text) {
		segments = append(segments, TextSegment(text[last:]))
	}
	return segments
}

// joinSegments serializes segments back into text, links as [display](href).
func joinSegments(segments []Segment) string {
	var sb strings.Builder
	for _, seg := range segments {
		switch seg.Kind {
		case SegmentLink:
			sb.WriteString("[")
			sb.WriteString(seg.Display)
			sb.WriteString("](")
			sb.WriteString(seg.Href)
			sb.WriteString(")")
		default:
			sb.WriteString(seg.Value)
		}
	}
	return sb.String()
}
