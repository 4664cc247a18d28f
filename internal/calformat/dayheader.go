package calformat

import "strings"

const (
	boldMarker    = "**"
	italicMarker  = "*"
	bullet        = "•"
	defaultTitle  = "Your Schedule"
	defaultBucket = "Your Schedule"
)

// isDayHeaderShape reports whether text looks like the markdown schedule layout:
// a bold first line or more than one line.
func isDayHeaderShape(text string) bool {
	return strings.HasPrefix(text, boldMarker) || strings.Contains(text, "\n")
}

// parseDayHeaderFormat parses a bold title line followed by bold day headers
// and bullet event lines. It always succeeds once the shape matches; lines
// that precede any day header land in the "Your Schedule" group.
//
// A day header repeated later in the text replaces the earlier group's lines
// unless disambiguate is set.
func parseDayHeaderFormat(text string, disambiguate bool) (FormattedResponse, bool) {
	if !isDayHeaderShape(text) {
		return FormattedResponse{}, false
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}

	title := defaultTitle
	start := 0
	if strings.HasPrefix(lines[0], boldMarker) {
		title = stripBold(lines[0])
		start = 1
	}

	groups := newGroupSet()
	current := ""
	for _, line := range lines[start:] {
		if strings.TrimSpace(line) == "" {
			continue
		}

		if isDayHeader(line) {
			current = ""
			if label := stripBold(line); label != "" {
				current = groups.open(label, disambiguate)
			}
			continue
		}

		target := current
		if target == "" {
			target = defaultBucket
		}
		groups.append(target, classifyLine(line))
	}

	return Structured(title, groups.list()), true
}

func isDayHeader(line string) bool {
	return strings.HasPrefix(line, boldMarker) &&
		!strings.Contains(line, bullet) &&
		!strings.Contains(line, "events")
}

func stripBold(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, boldMarker, ""))
}

// classifyLine turns a raw schedule line into an event, note or text line.
func classifyLine(line string) Line {
	if strings.Contains(line, bullet) {
		body := strings.TrimSpace(strings.Replace(line, bullet, "", 1))
		if !strings.Contains(body, ":") {
			return EventLine(body, "")
		}
		// hour:minute is the time, everything after the second colon the title
		parts := strings.Split(body, ":")
		time := parts[0] + ":" + parts[1]
		title := strings.TrimSpace(strings.Join(parts[2:], ":"))
		return EventLine(time, title)
	}

	if strings.HasPrefix(line, italicMarker) && strings.HasSuffix(line, italicMarker) {
		return NoteLine(strings.ReplaceAll(line, italicMarker, ""))
	}

	return TextLine(ExtractLinks(line))
}
