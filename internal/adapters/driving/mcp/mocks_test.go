package mcp

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	question domain.Question
}

func (m *mockAnswerService) Answer(_ context.Context, q domain.Question) (*domain.Answer, error) {
	m.question = q
	return m.answer, m.err
}

// mockRetrievalService is a mock implementation of driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedChunk
	err     error
	query   string
	filters domain.Filters
}

func (m *mockRetrievalService) Search(
	_ context.Context,
	query string,
	filters domain.Filters,
) ([]domain.RetrievedChunk, error) {
	m.query = query
	m.filters = filters
	return m.results, m.err
}

// mockIngestionService is a mock implementation of driving.IngestionService.
type mockIngestionService struct {
	specs   []domain.SourceSpec
	results []domain.IngestResult
}

func (m *mockIngestionService) Upsert(_ context.Context, spec domain.SourceSpec) (*domain.IngestResult, error) {
	m.specs = append(m.specs, spec)
	return &domain.IngestResult{URL: spec.URL}, nil
}

func (m *mockIngestionService) UpsertBatch(_ context.Context, specs []domain.SourceSpec) []domain.IngestResult {
	m.specs = append(m.specs, specs...)
	return m.results
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	infos   []domain.DocumentInfo
	details *driving.DocumentDetails
	err     error
	key     string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.infos, m.err
}

func (m *mockDocumentService) Get(_ context.Context, key string) (*domain.Document, error) {
	m.key = key
	if m.err != nil {
		return nil, m.err
	}
	return &m.details.Document, nil
}

func (m *mockDocumentService) GetDetails(_ context.Context, key string) (*driving.DocumentDetails, error) {
	m.key = key
	return m.details, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, key string) error {
	m.key = key
	return m.err
}

func requiredPorts() *Ports {
	return &Ports{
		Answer:    &mockAnswerService{},
		Retrieval: &mockRetrievalService{},
	}
}
