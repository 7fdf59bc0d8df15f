package driven

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// NormaliserRegistry dispatches raw sources to the normaliser for their kind.
type NormaliserRegistry interface {
	// Normalise transforms a raw source using the normaliser for raw.Kind.
	// Returns ErrUnsupportedType if no normaliser is registered for the kind.
	Normalise(ctx context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error)

	// Register adds a normaliser, replacing any existing one for its kind.
	Register(normaliser Normaliser)

	// SupportedKinds returns all kinds that can be normalised.
	SupportedKinds() []domain.ContentKind
}
