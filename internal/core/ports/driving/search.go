package driving

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// RetrievalService provides ranked evidence for a query.
type RetrievalService interface {
	// Search fuses semantic and lexical candidates, reranks them and returns
	// at most the configured final limit. An empty corpus yields an empty slice.
	Search(ctx context.Context, query string, filters domain.Filters) ([]domain.RetrievedChunk, error)
}
