package html

import (
	"bytes"
	"context"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles HTML documents.
type Normaliser struct{}

// New creates a new HTML normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the content kind this normaliser handles.
func (n *Normaliser) Kind() domain.ContentKind {
	return domain.ContentKindHTML
}

// Normalise extracts visible text, sections and the <title>.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	doc, err := html.Parse(bytes.NewReader(raw.Content))
	if err != nil {
		return nil, &domain.ExtractionError{URL: raw.URL, Kind: domain.ContentKindHTML, Reason: "parse html", Err: err}
	}

	root := mainContent(doc)
	text := strings.Join(visibleLines(root), "\n")
	if text == "" {
		return nil, &domain.ExtractionError{URL: raw.URL, Kind: domain.ContentKindHTML, Reason: "no visible text"}
	}

	return &domain.NormalisedSource{
		Text:     text,
		Sections: extractSections(root),
		Title:    findTitle(doc),
	}, nil
}

// boilerplate elements never contribute text.
var boilerplate = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Nav:      true,
	atom.Footer:   true,
	atom.Header:   true,
	atom.Aside:    true,
	atom.Form:     true,
	atom.Template: true,
	atom.Svg:      true,
	atom.Head:     true,
}

// mainContent returns the first <main>, else <article>, else <body>, else doc.
func mainContent(doc *html.Node) *html.Node {
	for _, a := range []atom.Atom{atom.Main, atom.Article, atom.Body} {
		if n := findElement(doc, a); n != nil {
			return n
		}
	}
	return doc
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	if n.Type == html.ElementNode && boilerplate[n.DataAtom] {
		return nil
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findTitle(doc *html.Node) string {
	var walk func(*html.Node) string
	walk = func(n *html.Node) string {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			return textContent(n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if t := walk(c); t != "" {
				return t
			}
		}
		return ""
	}
	return walk(doc)
}

// visibleLines returns each non-blank text node under n, whitespace-collapsed.
func visibleLines(n *html.Node) []string {
	var lines []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if line := collapse(n.Data); line != "" {
				lines = append(lines, line)
			}
			return
		case html.ElementNode:
			if boilerplate[n.DataAtom] {
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return lines
}

// extractSections pairs each heading with the paragraphs that follow it.
// Paragraphs before the first heading are grouped under the default heading.
func extractSections(root *html.Node) []domain.Section {
	var sections []domain.Section
	heading := ""
	var paragraphs []string

	flush := func() {
		if len(paragraphs) > 0 {
			h := heading
			if h == "" {
				h = domain.DefaultSectionHeading
			}
			sections = append(sections, domain.Section{Heading: h, Text: strings.Join(paragraphs, "\n")})
		}
		paragraphs = nil
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if boilerplate[n.DataAtom] {
				return
			}
			if headingLevel(n.DataAtom) > 0 {
				flush()
				heading = textContent(n)
				return
			}
			if n.DataAtom == atom.P {
				if t := textContent(n); t != "" {
					paragraphs = append(paragraphs, t)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	flush()

	return sections
}

func headingLevel(a atom.Atom) int {
	switch a {
	case atom.H1:
		return 1
	case atom.H2:
		return 2
	case atom.H3:
		return 3
	case atom.H4:
		return 4
	case atom.H5:
		return 5
	case atom.H6:
		return 6
	}
	return 0
}

// textContent returns the collapsed text under n, skipping boilerplate.
func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.ElementNode && boilerplate[n.DataAtom] {
			return
		}
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Br {
			buf.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return collapse(buf.String())
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
