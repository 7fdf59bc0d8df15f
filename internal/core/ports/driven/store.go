package driven

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// Store persists documents and chunks and answers filtered searches over
// chunks joined to their documents.
type Store interface {
	// WithTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx StoreTx) error) error

	// SupportsSimilaritySearch reports whether SimilaritySearch ranks by
	// vector distance.
	SupportsSimilaritySearch() bool

	// SimilaritySearch returns up to limit chunks in ascending distance to
	// the query vector.
	SimilaritySearch(ctx context.Context, vector []float32, filters domain.Filters, limit int) ([]domain.RetrievedChunk, error)

	// LexicalSearch returns up to limit chunks whose text contains query
	// case-insensitively, shortest text first.
	LexicalSearch(ctx context.Context, query string, filters domain.Filters, limit int) ([]domain.RetrievedChunk, error)

	// GetDocument retrieves a document by ID.
	GetDocument(ctx context.Context, id string) (*domain.Document, error)

	// GetDocumentByURL retrieves a document by its URL.
	GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error)

	// ListDocuments returns all documents with their chunk counts, newest first.
	ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error)

	// GetChunks retrieves all chunks for a document in section order.
	GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error)

	// DeleteDocument removes a document and its chunks.
	DeleteDocument(ctx context.Context, id string) error

	// CountChunks returns the total number of stored chunks.
	CountChunks(ctx context.Context) (int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// StoreTx is the write surface available inside Store.WithTx.
type StoreTx interface {
	// GetDocumentByURL returns domain.ErrNotFound when no document has url.
	GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error)

	// CreateDocument inserts a new document.
	CreateDocument(ctx context.Context, doc *domain.Document) error

	// UpdateDocument updates hash, kind, uploader and update time.
	UpdateDocument(ctx context.Context, doc *domain.Document) error

	// DeleteChunks removes all chunks of a document.
	DeleteChunks(ctx context.Context, documentID string) error

	// SaveChunks inserts chunks.
	SaveChunks(ctx context.Context, chunks []domain.Chunk) error
}
