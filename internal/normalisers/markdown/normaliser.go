// Package markdown provides a Normaliser implementation for Markdown documents.
// Headings start sections; every other block is reduced to plain text under
// the current heading.
package markdown

import (
	"context"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// Normaliser handles Markdown documents.
type Normaliser struct {
	md goldmark.Markdown
}

// New creates a new Markdown normaliser with GitHub-flavoured tables enabled.
func New() *Normaliser {
	return &Normaliser{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Kind returns the content kind this normaliser handles.
func (n *Normaliser) Kind() domain.ContentKind {
	return domain.ContentKindMarkdown
}

// Normalise walks the top-level blocks of the document.
func (n *Normaliser) Normalise(_ context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	src := raw.Content
	doc := n.md.Parser().Parse(text.NewReader(src))

	var (
		title    string
		heading  string
		lines    []string
		body     []string
		sections []domain.Section
	)

	flush := func() {
		if len(body) > 0 {
			h := heading
			if h == "" {
				h = domain.DefaultSectionHeading
			}
			sections = append(sections, domain.Section{Heading: h, Text: strings.Join(body, "\n")})
		}
		body = nil
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if h, ok := node.(*ast.Heading); ok {
			flush()
			heading = inlineText(h, src)
			if title == "" && h.Level == 1 {
				title = heading
			}
			if heading != "" {
				lines = append(lines, heading)
			}
			continue
		}
		if t := blockText(node, src); t != "" {
			body = append(body, t)
			lines = append(lines, t)
		}
	}
	flush()

	if len(lines) == 0 {
		return nil, &domain.ExtractionError{URL: raw.URL, Kind: domain.ContentKindMarkdown, Reason: "no text"}
	}

	return &domain.NormalisedSource{
		Text:     strings.Join(lines, "\n"),
		Sections: sections,
		Title:    title,
	}, nil
}

// blockText reduces a block node to plain text, one line per leaf block.
func blockText(n ast.Node, src []byte) string {
	switch n.Kind() {
	case ast.KindFencedCodeBlock, ast.KindCodeBlock:
		var b strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			b.Write(seg.Value(src))
		}
		return strings.TrimSpace(b.String())
	case ast.KindHTMLBlock, ast.KindThematicBreak:
		return ""
	}

	if c := n.FirstChild(); c != nil && c.Type() == ast.TypeBlock {
		var parts []string
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			if t := blockText(c, src); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, "\n")
	}
	return inlineText(n, src)
}

// inlineText concatenates the inline text under n with whitespace collapsed.
// Images and raw HTML are dropped.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	var walk func(ast.Node)
	walk = func(n ast.Node) {
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			switch v := c.(type) {
			case *ast.Text:
				b.Write(v.Segment.Value(src))
				if v.SoftLineBreak() || v.HardLineBreak() {
					b.WriteByte(' ')
				}
			case *ast.String:
				b.Write(v.Value)
			case *ast.AutoLink:
				b.Write(v.URL(src))
			case *ast.Image, *ast.RawHTML:
				// skip
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
