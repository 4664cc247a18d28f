// Package render draws formatted calendar responses for a terminal.
package render

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/omriShneor/clarity/internal/calformat"
)

// Renderer turns a FormattedResponse into styled terminal text
type Renderer struct {
	titleStyle lipgloss.Style
	labelStyle lipgloss.Style
	timeStyle  lipgloss.Style
	noteStyle  lipgloss.Style
	linkStyle  lipgloss.Style
	hrefStyle  lipgloss.Style
}

// New creates a renderer whose color support is detected from w
func New(w io.Writer) *Renderer {
	return NewWithRenderer(lipgloss.NewRenderer(w))
}

// NewWithRenderer creates a renderer on an existing lipgloss renderer
func NewWithRenderer(lr *lipgloss.Renderer) *Renderer {
	return &Renderer{
		titleStyle: lr.NewStyle().Foreground(lipgloss.Color("12")).Bold(true),
		labelStyle: lr.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		timeStyle:  lr.NewStyle().Foreground(lipgloss.Color("10")),
		noteStyle:  lr.NewStyle().Foreground(lipgloss.Color("242")).Italic(true),
		linkStyle:  lr.NewStyle().Foreground(lipgloss.Color("12")).Underline(true),
		hrefStyle:  lr.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// Render returns the response as lines of text, ending with a newline
func (r *Renderer) Render(resp calformat.FormattedResponse) string {
	var b strings.Builder

	if !resp.IsStructured() {
		b.WriteString(r.segments(resp.Segments))
		b.WriteString("\n")
		return b.String()
	}

	if resp.Title != "" {
		b.WriteString(r.titleStyle.Render(resp.Title))
		b.WriteString("\n")
	}

	for _, group := range resp.Groups {
		b.WriteString("\n")
		b.WriteString(r.labelStyle.Render(group.Label))
		b.WriteString("\n")
		for _, line := range group.Lines {
			b.WriteString("  ")
			b.WriteString(r.line(line))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func (r *Renderer) line(line calformat.Line) string {
	switch line.Kind {
	case calformat.LineEvent:
		if line.Title == "" {
			return r.timeStyle.Render(line.Time)
		}
		return r.timeStyle.Render(line.Time) + "  " + line.Title
	case calformat.LineNote:
		return r.noteStyle.Render(line.Text)
	default:
		return r.segments(line.Segments)
	}
}

func (r *Renderer) segments(segs []calformat.Segment) string {
	var b strings.Builder
	for _, seg := range segs {
		if seg.Kind == calformat.SegmentLink {
			b.WriteString(r.linkStyle.Render(seg.Display))
			b.WriteString(" ")
			b.WriteString(r.hrefStyle.Render("(" + seg.Href + ")"))
			continue
		}
		b.WriteString(seg.Value)
	}
	return b.String()
}
