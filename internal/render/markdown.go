// Package render turns card text into terminal output.
package render

import (
	"strings"

	"github.com/charmbracelet/glamour"

	"cardboard/internal/logger"
)

const minWrapWidth = 24

// Markdown renders card text with glamour and caches the renderer per wrap
// width. A disabled renderer returns the text as written.
type Markdown struct {
	Enabled bool
	// Style is a glamour standard style name; "dark" when empty.
	Style string

	width    int
	renderer *glamour.TermRenderer
}

func NewMarkdown(enabled bool) *Markdown {
	return &Markdown{Enabled: enabled, Style: "dark"}
}

// Render wraps text to width. Rendering errors fall back to the raw text.
func (m *Markdown) Render(text string, width int) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if m == nil || !m.Enabled {
		return text
	}

	wrap := width
	if wrap < minWrapWidth {
		wrap = minWrapWidth
	}

	if m.renderer == nil || m.width != wrap {
		style := m.Style
		if style == "" {
			style = "dark"
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			logger.Debug("markdown renderer: %v", err)
			return text
		}
		m.renderer = r
		m.width = wrap
	}

	out, err := m.renderer.Render(text)
	if err != nil {
		logger.Debug("markdown render: %v", err)
		return text
	}
	return strings.Trim(out, "\n")
}
