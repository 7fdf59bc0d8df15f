package services

import (
	"context"
	"errors"
	"strings"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	store driven.Store
}

// NewDocumentService creates a new document service.
func NewDocumentService(store driven.Store) *DocumentService {
	return &DocumentService{store: store}
}

// List returns all documents with chunk counts, newest first.
func (s *DocumentService) List(ctx context.Context) ([]domain.DocumentInfo, error) {
	return s.store.ListDocuments(ctx)
}

// Get resolves idOrURL as a document ID first and then as a URL.
func (s *DocumentService) Get(ctx context.Context, idOrURL string) (*domain.Document, error) {
	idOrURL = strings.TrimSpace(idOrURL)
	if idOrURL == "" {
		return nil, domain.ErrInvalidInput
	}

	doc, err := s.store.GetDocument(ctx, idOrURL)
	if err == nil {
		return doc, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}
	return s.store.GetDocumentByURL(ctx, idOrURL)
}

// GetDetails returns a document with its chunks and a summary of their metadata.
func (s *DocumentService) GetDetails(ctx context.Context, idOrURL string) (*driving.DocumentDetails, error) {
	doc, err := s.Get(ctx, idOrURL)
	if err != nil {
		return nil, err
	}

	chunks, err := s.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return nil, err
	}

	details := &driving.DocumentDetails{
		Document: *doc,
		Chunks:   chunks,
	}

	seen := make(map[string]bool)
	for i, c := range chunks {
		md := c.Metadata
		if i == 0 {
			details.PermitType = md.PermitType
			details.Region = md.Region
		}
		if details.Title == "" {
			details.Title = md.SourceTitle
		}
		if md.VersionDate > details.VersionDate {
			details.VersionDate = md.VersionDate
		}
		if !seen[md.Section] {
			seen[md.Section] = true
			details.Sections = append(details.Sections, md.Section)
		}
	}

	return details, nil
}

// Delete removes a document and its chunks.
func (s *DocumentService) Delete(ctx context.Context, idOrURL string) error {
	doc, err := s.Get(ctx, idOrURL)
	if err != nil {
		return err
	}
	return s.store.DeleteDocument(ctx, doc.ID)
}
