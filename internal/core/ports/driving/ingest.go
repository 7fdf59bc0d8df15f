package driving

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// IngestionService turns sources into stored, embedded chunks.
type IngestionService interface {
	// Upsert ingests one source all-or-nothing.
	Upsert(ctx context.Context, spec domain.SourceSpec) (*domain.IngestResult, error)

	// UpsertBatch ingests sources independently. Every spec gets a result in
	// input order; failures are reported in IngestResult.Err.
	UpsertBatch(ctx context.Context, specs []domain.SourceSpec) []domain.IngestResult
}
