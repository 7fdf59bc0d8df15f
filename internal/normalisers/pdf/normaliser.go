// Package pdf provides a Normaliser implementation for PDF documents.
// Each physical page with text becomes one section labelled "Page N".
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	pdflib "github.com/ledongthuc/pdf"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Normaliser implements the interface.
var _ driven.Normaliser = (*Normaliser)(nil)

// PageSeparator separates pages in the normalised text.
const PageSeparator = "\f"

// Normaliser handles PDF documents.
type Normaliser struct{}

// New creates a new PDF normaliser.
func New() *Normaliser {
	return &Normaliser{}
}

// Kind returns the content kind this normaliser handles.
func (n *Normaliser) Kind() domain.ContentKind {
	return domain.ContentKindPDF
}

// Normalise extracts page text. Blank pages are discarded but keep their
// physical number in the labels of later pages.
func (n *Normaliser) Normalise(ctx context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	pages, err := extractPages(ctx, raw.Content)
	if err != nil {
		return nil, &domain.ExtractionError{URL: raw.URL, Kind: domain.ContentKindPDF, Reason: "read pdf", Err: err}
	}

	return fromPages(raw.URL, pages)
}

// fromPages builds the normalised source from per-page text.
func fromPages(url string, pages []string) (*domain.NormalisedSource, error) {
	var sections []domain.Section
	var texts []string
	for i, page := range pages {
		cleaned := cleanPage(page)
		if cleaned == "" {
			continue
		}
		sections = append(sections, domain.Section{
			Heading: fmt.Sprintf("Page %d", i+1),
			Text:    cleaned,
		})
		texts = append(texts, cleaned)
	}

	if len(sections) == 0 {
		return nil, &domain.ExtractionError{URL: url, Kind: domain.ContentKindPDF, Reason: "no extractable text"}
	}

	return &domain.NormalisedSource{
		Text:     strings.Join(texts, PageSeparator),
		Sections: sections,
	}, nil
}

// extractPages returns the plain text of every physical page in order.
// Pages whose text cannot be read come back empty.
func extractPages(ctx context.Context, data []byte) (pages []string, err error) {
	// The PDF library panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, err
	}

	numPages := reader.NumPage()
	pages = make([]string, numPages)
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		pages[i-1] = text
	}
	return pages, nil
}

// cleanPage trims every line and drops blank ones.
func cleanPage(text string) string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
