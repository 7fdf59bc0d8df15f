package driven

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// Normaliser reduces a raw source of one content kind to plain text and
// ordered sections.
type Normaliser interface {
	// Kind returns the content kind this normaliser handles.
	Kind() domain.ContentKind

	// Normalise extracts text, sections and title.
	// Returns *domain.ExtractionError when no text can be derived; it never
	// returns empty text without an error.
	Normalise(ctx context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error)
}
