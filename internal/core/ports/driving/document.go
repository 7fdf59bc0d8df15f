package driving

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// DocumentService manages ingested documents.
type DocumentService interface {
	// List returns all documents with chunk counts.
	List(ctx context.Context) ([]domain.DocumentInfo, error)

	// Get retrieves a document by ID or, failing that, by URL.
	Get(ctx context.Context, idOrURL string) (*domain.Document, error)

	// GetDetails returns the document together with its chunks.
	GetDetails(ctx context.Context, idOrURL string) (*DocumentDetails, error)

	// Delete removes a document and its chunks.
	Delete(ctx context.Context, idOrURL string) error
}

// DocumentDetails provides a display view of a document.
type DocumentDetails struct {
	Document domain.Document

	// Title is the first non-empty source title among the chunks.
	Title string

	// PermitType and Region are taken from the first chunk.
	PermitType string
	Region     string

	// VersionDate is the latest version date among the chunks.
	VersionDate string

	// Sections lists distinct section labels in order.
	Sections []string

	Chunks []domain.Chunk
}
