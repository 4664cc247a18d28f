package calformat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractLinks(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []Segment
	}{
		{
			name:  "bare url after prose",
			input: "Here's the link: https://example.com/cal",
			expected: []Segment{
				TextSegment("Here's the link: "),
				LinkSegment("here", "https://example.com/cal"),
			},
		},
		{
			name:     "no url",
			input:    "Nothing scheduled today.",
			expected: []Segment{TextSegment("Nothing scheduled today.")},
		},
		{
			name:     "empty input",
			input:    "",
			expected: []Segment{TextSegment("")},
		},
		{
			name:  "multiple bare urls",
			input: "See https://a.example/x and https://b.example/y.",
			expected: []Segment{
				TextSegment("See "),
				LinkSegment("here", "https://a.example/x"),
				TextSegment(" and "),
				LinkSegment("here", "https://b.example/y."),
			},
		},
		{
			name:  "bare url stops at closing paren and bracket",
			input: "(http://example.com/a) [https://example.com/b]",
			expected: []Segment{
				TextSegment("("),
				LinkSegment("here", "http://example.com/a"),
				TextSegment(") ["),
				LinkSegment("here", "https://example.com/b"),
				TextSegment("]"),
			},
		},
		{
			name:  "view it here phrase",
			input: "Event created. You can view it [here](https://calendar.example/e/1)",
			expected: []Segment{
				TextSegment("Event created. "),
				TextSegment("You can view it "),
				LinkSegment("here", "https://calendar.example/e/1"),
			},
		},
		{
			name:  "view it here phrase is case insensitive and normalized",
			input: "you can view it [HERE](https://calendar.example/e/2) today",
			expected: []Segment{
				TextSegment("You can view it "),
				LinkSegment("here", "https://calendar.example/e/2"),
				TextSegment(" today"),
			},
		},
		{
			name:  "view it here phrase suppresses bare url scanning",
			input: "You can view it [here](https://a.example/1). Also https://b.example/2",
			expected: []Segment{
				TextSegment("You can view it "),
				LinkSegment("here", "https://a.example/1"),
				TextSegment(". Also https://b.example/2"),
			},
		},
		{
			name:  "two view it here phrases",
			input: "You can view it [here](https://a.example/1), You can view it [here](https://a.example/2)",
			expected: []Segment{
				TextSegment("You can view it "),
				LinkSegment("here", "https://a.example/1"),
				TextSegment(", "),
				TextSegment("You can view it "),
				LinkSegment("here", "https://a.example/2"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractLinks(tt.input))
		})
	}
}

func TestExtractLinks_Idempotent(t *testing.T) {
	inputs := []string{
		"Here's the link: https://example.com/cal",
		"Done! You can view it [Here](https://calendar.example/e/9).",
		"Two: https://a.example/1 https://b.example/2",
		"no links at all",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			first := ExtractLinks(input)
			second := ExtractLinks(joinSegments(first))

			assert.Equal(t, links(first), links(second))
			for _, seg := range second {
				if seg.Kind == SegmentLink {
					assert.Equal(t, "here", seg.Display)
				}
			}
		})
	}
}

func TestJoinSegments(t *testing.T) {
	segments := []Segment{
		TextSegment("Open "),
		LinkSegment("here", "https://example.com"),
		TextSegment("."),
	}

	require.Equal(t, "Open [here](https://example.com).", joinSegments(segments))
	assert.Equal(t, "", joinSegments(nil))
}

func links(segments []Segment) []string {
	var hrefs []string
	for _, seg := range segments {
		if seg.Kind == SegmentLink {
			hrefs = append(hrefs, seg.Href)
		}
	}
	return hrefs
}
