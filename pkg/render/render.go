// Package render turns model responses into terminal output.
package render

import (
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
)

// Renderer renders responses as markdown or plain text. Term renderers are
// built lazily and reused for each wrap width.
type Renderer struct {
	style string

	mu    sync.Mutex
	cache map[int]*glamour.TermRenderer
}

// NewRenderer creates a renderer using the named glamour style. An empty
// style picks light or dark from the terminal background.
func NewRenderer(style string) *Renderer {
	return &Renderer{
		style: style,
		cache: make(map[int]*glamour.TermRenderer),
	}
}

// Render returns text unchanged when markdownEnabled is false. Otherwise it
// is rendered as markdown wrapped at width; if rendering fails text is
// returned as is.
func (r *Renderer) Render(text string, markdownEnabled bool, width int) string {
	if !markdownEnabled || text == "" {
		return text
	}

	tr, err := r.termRenderer(width)
	if err != nil {
		return text
	}

	r.mu.Lock()
	out, err := tr.Render(text)
	r.mu.Unlock()
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}

func (r *Renderer) termRenderer(width int) (*glamour.TermRenderer, error) {
	if width < 20 {
		width = 20
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if tr, ok := r.cache[width]; ok {
		return tr, nil
	}

	style := glamour.WithAutoStyle()
	if r.style != "" {
		style = glamour.WithStandardStyle(r.style)
	}

	tr, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return nil, err
	}
	r.cache[width] = tr
	return tr, nil
}

// HighlightMarkup colors HTML for a 256-color terminal.
func HighlightMarkup(markup string) (string, error) {
	var b strings.Builder
	if err := quick.Highlight(&b, markup, "html", "terminal256", "monokai"); err != nil {
		return "", err
	}
	return b.String(), nil
}
