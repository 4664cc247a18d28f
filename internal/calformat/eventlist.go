package calformat

import (
	"regexp"
	"strconv"
	"strings"
)

const defaultPeriod = "upcoming"

var (
	eventCountPattern   = regexp.MustCompile(`(?i)You have (\d+) events?(?: ((?:for|next|in) [^:]+))?:`)
	eventSummaryPattern = regexp.MustCompile(`(?i)You have \d+ events?[^:\n]*:`)
	eventPattern        = regexp.MustCompile(`([A-Za-z]+), ([A-Za-z]+ \d+) at ([\d:]+\s*[AP]M): ([^,]+)(?:,|$)`)
	dateMonthPattern    = regexp.MustCompile(`([A-Za-z]+)\s+\d+`)
)

// periodKeywords is checked in order; the first keyword contained in the text wins
var periodKeywords = []struct {
	keyword string
	period  string
}{
	{"next week", "next week"},
	{"this week", "this week"},
	{"week", "this week"},
	{"today", "today"},
	{"tomorrow", "tomorrow"},
	{"next month", "next month"},
	{"this month", "this month"},
}

// monthNames maps month names and abbreviations to full month names, in lookup order
var monthNames = []struct {
	token string
	name  string
}{
	{"january", "January"}, {"jan", "January"},
	{"february", "February"}, {"feb", "February"},
	{"march", "March"}, {"mar", "March"},
	{"april", "April"}, {"apr", "April"},
	{"may", "May"},
	{"june", "June"}, {"jun", "June"},
	{"july", "July"}, {"jul", "July"},
	{"august", "August"}, {"aug", "August"},
	{"september", "September"}, {"sep", "September"}, {"sept", "September"},
	{"october", "October"}, {"oct", "October"},
	{"november", "November"}, {"nov", "November"},
	{"december", "December"}, {"dec", "December"},
}

// isEventListShape also accepts a "You have N events <period>:" sentence, whose
// colon follows the period rather than the word "events".
func isEventListShape(text string) bool {
	return strings.Contains(text, "events:") || strings.Contains(text, "event:") ||
		eventSummaryPattern.MatchString(text)
}

// extractEvents returns every "<Day>, <Mon D> at <H:MM AM>: <Title>" occurrence in source order
func extractEvents(text string) []ParsedEvent {
	matches := eventPattern.FindAllStringSubmatch(text, -1)
	events := make([]ParsedEvent, 0, len(matches))
	for _, m := range matches {
		events = append(events, ParsedEvent{
			Day:         m[1],
			Date:        m[2],
			Time:        m[3],
			Title:       strings.TrimSpace(m[4]),
			MatchedText: m[0],
		})
	}
	return events
}

// parseEventListFormat parses the "You have N events <period>: Day, Date at
// Time: Title, ..." sentence. ok is false when the shape does not match or no
// event could be extracted.
func parseEventListFormat(text string) ([]ParsedEvent, FormattedResponse, bool) {
	if !isEventListShape(text) {
		return nil, FormattedResponse{}, false
	}

	events := extractEvents(text)
	if len(events) == 0 {
		return nil, FormattedResponse{}, false
	}

	count := strconv.Itoa(len(events))
	headerPeriod := ""
	if m := eventCountPattern.FindStringSubmatch(text); m != nil {
		count = m[1]
		headerPeriod = strings.TrimSpace(m[2])
	}

	period := resolvePeriod(text, headerPeriod)
	if period == defaultPeriod {
		if month := eventMonth(events[0]); month != "" {
			period = "in " + month
		}
	}

	groups := newGroupSet()
	for _, e := range events {
		groups.append(e.GroupKey(), EventLine(e.Time, e.Title))
	}

	return events, Structured(eventListTitle(count, period), groups.list()), true
}

// resolvePeriod picks the time period label: the header phrase, then period
// keywords, then the first month mentioned anywhere, then "upcoming".
func resolvePeriod(text, headerPeriod string) string {
	if headerPeriod != "" {
		return headerPeriod
	}

	lower := strings.ToLower(text)
	for _, pk := range periodKeywords {
		if strings.Contains(lower, pk.keyword) {
			return pk.period
		}
	}
	for _, mn := range monthNames {
		if strings.Contains(lower, mn.token) {
			return mn.name
		}
	}
	return defaultPeriod
}

// eventMonth returns the full month name of the event's date token.
// Unknown tokens are returned as written.
func eventMonth(e ParsedEvent) string {
	m := dateMonthPattern.FindStringSubmatch(e.Date)
	if m == nil {
		return ""
	}
	if name, ok := lookupMonth(m[1]); ok {
		return name
	}
	return m[1]
}

func lookupMonth(token string) (string, bool) {
	token = strings.ToLower(token)
	for _, mn := range monthNames {
		if mn.token == token {
			return mn.name, true
		}
	}
	return "", false
}

func eventListTitle(count, period string) string {
	noun := "events"
	if n, err := strconv.Atoi(count); err == nil && n == 1 {
		noun = "event"
	}
	return "You have " + count + " " + noun + " " + period + ":"
}
