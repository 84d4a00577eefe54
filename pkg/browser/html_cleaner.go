package browser

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// CleanedMarkup is page markup with noise removed.
type CleanedMarkup struct {
	HTML      string
	Title     string
	Truncated bool
}

var (
	droppedElements = set("script", "style", "noscript", "iframe", "embed", "object", "svg", "template", "link", "meta")

	blockElements = set(
		"div", "p", "section", "article", "header", "footer", "nav", "main", "aside",
		"h1", "h2", "h3", "h4", "h5", "h6", "ul", "ol", "li", "dl", "dt", "dd",
		"table", "thead", "tbody", "tr", "td", "th", "form", "fieldset", "blockquote", "pre", "figure",
	)

	voidElements = set("area", "base", "br", "col", "embed", "hr", "img", "input", "link", "meta", "param", "source", "track", "wbr")

	keptAttributes = map[string]map[string]bool{
		"a":   set("href", "title"),
		"img": set("src", "alt"),
		"td":  set("colspan", "rowspan"),
		"th":  set("colspan", "rowspan", "scope"),
		"abbr": set("title"),
		"time": set("datetime"),
	}
)

func set(items ...string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, item := range items {
		m[item] = true
	}
	return m
}

// CleanMarkup reduces raw page markup to its readable structure. Scripts,
// styles, comments and embedded objects are dropped, and only attributes
// carrying content (links, image alt text, table spans) survive. Output stops
// once maxLength characters of text and tags have been written.
func CleanMarkup(raw string, maxLength int) (*CleanedMarkup, error) {
	if maxLength <= 0 {
		maxLength = DefaultMaxLength
	}

	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse markup: %w", err)
	}

	w := &markupWriter{limit: maxLength}
	w.walk(doc, 0)

	return &CleanedMarkup{
		HTML:      strings.TrimSpace(w.out.String()),
		Title:     findTitle(doc),
		Truncated: w.full,
	}, nil
}

type markupWriter struct {
	out   strings.Builder
	count int
	limit int
	full  bool
}

func (w *markupWriter) walk(n *html.Node, depth int) {
	if w.full {
		return
	}

	switch n.Type {
	case html.CommentNode, html.DoctypeNode:
		return
	case html.TextNode:
		w.text(n.Data)
		return
	case html.ElementNode:
		w.element(n, depth)
		return
	}

	for c := n.FirstChild; c != nil && !w.full; c = c.NextSibling {
		w.walk(c, depth)
	}
}

func (w *markupWriter) text(data string) {
	text := strings.Join(strings.Fields(data), " ")
	if text == "" {
		return
	}

	n := utf8.RuneCountInString(text)
	if w.count+n > w.limit {
		text = truncateRunes(text, w.limit-w.count) + "..."
		w.full = true
		n = w.limit - w.count
	}
	w.out.WriteString(text)
	w.count += n
}

func (w *markupWriter) element(n *html.Node, depth int) {
	tag := strings.ToLower(n.Data)
	if droppedElements[tag] {
		return
	}

	block := blockElements[tag]
	if block {
		w.newline(depth)
	}

	w.out.WriteString("<" + tag)
	for _, attr := range n.Attr {
		key := strings.ToLower(attr.Key)
		if keptAttributes[tag][key] {
			fmt.Fprintf(&w.out, ` %s="%s"`, key, html.EscapeString(attr.Val))
		}
	}
	w.out.WriteString(">")
	w.count += len(tag) + 2

	if voidElements[tag] {
		return
	}

	for c := n.FirstChild; c != nil && !w.full; c = c.NextSibling {
		w.walk(c, depth+1)
	}

	if block {
		w.newline(depth)
	}
	w.out.WriteString("</" + tag + ">")
	w.count += len(tag) + 3
}

func (w *markupWriter) newline(depth int) {
	w.out.WriteString("\n")
	w.out.WriteString(strings.Repeat("  ", depth))
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		if n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
			return strings.TrimSpace(n.FirstChild.Data)
		}
		return ""
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findTitle(c); title != "" {
			return title
		}
	}
	return ""
}
