// Package markup turns provider chat HTML into plain text while preserving
// code blocks as fenced sections. Providers decorate code with wrapper
// elements (copy buttons, language labels, line numbers); cleaners collapse
// those wrappers down to the code payload and surround it with ``` fences so
// the text result keeps code boundaries intact.
package markup

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	xhtml "golang.org/x/net/html"
)

// Fence delimits code blocks in cleaned text.
const Fence = "```"

var stripPolicy = bluemonday.StrictPolicy()

// Parse parses an HTML fragment into a goquery document.
func Parse(raw string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(raw))
}

// Strip removes all markup from raw and returns the remaining text with
// entities decoded. Script and style contents are dropped entirely.
func Strip(raw string) string {
	return html.UnescapeString(stripPolicy.Sanitize(raw))
}

// Render serializes the (possibly modified) document back to HTML.
func Render(doc *goquery.Document) string {
	out, err := doc.Html()
	if err != nil {
		return ""
	}
	return out
}

// FlattenSeparated extracts every text node under sel, joined by sep.
// Mirrors text extraction with an explicit separator so sibling blocks do
// not run together.
func FlattenSeparated(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *xhtml.Node)
	walk = func(n *xhtml.Node) {
		if n.Type == xhtml.TextNode {
			if n.Data != "" {
				parts = append(parts, n.Data)
			}
			return
		}
		if n.Type == xhtml.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

// CollapseNewlines reduces every run of consecutive newlines to a single
// newline.
func CollapseNewlines(s string) string {
	for strings.Contains(s, "\n\n") {
		s = strings.ReplaceAll(s, "\n\n", "\n")
	}
	return s
}

// FenceSelection wraps each node of sel in fence delimiters by inserting
// literal text siblings around it.
func FenceSelection(sel *goquery.Selection) {
	sel.Each(func(_ int, s *goquery.Selection) {
		s.BeforeHtml("\n" + Fence + "\n")
		s.AfterHtml("\n" + Fence + "\n")
	})
}

// CleanDefault is the canonical cleaner: each div.code-block wrapper is
// replaced by its fenced code text, everything else is stripped to plain
// text and blank-line runs collapse. Providers with known page structure
// install their own cleaner instead.
func CleanDefault(raw string) string {
	doc, err := Parse(raw)
	if err != nil {
		return strings.TrimSpace(Strip(raw))
	}
	doc.Find("div.code-block").Each(func(_ int, s *goquery.Selection) {
		code := s.Text()
		s.SetText(code)
		s.BeforeHtml("\n" + Fence + "\n")
		s.AfterHtml("\n" + Fence + "\n")
	})
	text := Strip(Render(doc))
	return strings.TrimSpace(CollapseNewlines(text))
}
