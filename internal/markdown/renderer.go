// Package markdown renders chat answers and summaries for the terminal.
// Shared by streaming and finished messages, so it must be deterministic
// and idempotent: the same source string always yields the same output.
package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// Renderer wraps a glamour terminal renderer with a fixed style and wrap
// width. GitHub-flavored markdown is supported: headings, lists, tables,
// blockquotes, links, inline code, and fenced code blocks with
// language-aware highlighting. A fixed style (rather than auto-detection)
// keeps output independent of the environment.
type Renderer struct {
	width int
	tr    *glamour.TermRenderer
}

// NewRenderer creates a renderer wrapping at the given width.
func NewRenderer(width int) (*Renderer, error) {
	if width < 10 {
		width = 10
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &Renderer{width: width, tr: tr}, nil
}

// Width returns the wrap width the renderer was built with.
func (r *Renderer) Width() int {
	return r.width
}

// Render formats a markdown string for terminal display. On a formatting
// error the source text is returned unstyled; a partial answer mid-reveal
// must still produce output.
func (r *Renderer) Render(source string) string {
	out, err := r.tr.Render(source)
	if err != nil {
		return source
	}
	return strings.TrimRight(out, "\n")
}
