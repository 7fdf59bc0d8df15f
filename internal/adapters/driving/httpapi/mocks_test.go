package httpapi

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// --- Mock implementations ---

type mockAnswer struct {
	answer   *domain.Answer
	err      error
	question domain.Question
}

func (m *mockAnswer) Answer(_ context.Context, q domain.Question) (*domain.Answer, error) {
	m.question = q
	return m.answer, m.err
}

type mockIngestion struct {
	specs []domain.SourceSpec
}

func (m *mockIngestion) Upsert(_ context.Context, spec domain.SourceSpec) (*domain.IngestResult, error) {
	return &domain.IngestResult{URL: spec.URL}, nil
}

func (m *mockIngestion) UpsertBatch(_ context.Context, specs []domain.SourceSpec) []domain.IngestResult {
	m.specs = specs
	results := make([]domain.IngestResult, len(specs))
	for i, s := range specs {
		if s.URL == "https://bad.example/x.html" {
			results[i] = domain.IngestResult{URL: s.URL, Err: &domain.FetchError{URL: s.URL, StatusCode: 404}}
			continue
		}
		results[i] = domain.IngestResult{URL: s.URL, DocumentID: "doc-" + s.URL, ChunkCount: 3, Created: true}
	}
	return results
}

type mockDocuments struct {
	docs    []domain.DocumentInfo
	deleted []string
}

func (m *mockDocuments) find(idOrURL string) (*domain.DocumentInfo, error) {
	if idOrURL == "" {
		return nil, domain.ErrInvalidInput
	}
	for i := range m.docs {
		if m.docs[i].ID == idOrURL || m.docs[i].URL == idOrURL {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, nil
}

func (m *mockDocuments) Get(_ context.Context, idOrURL string) (*domain.Document, error) {
	d, err := m.find(idOrURL)
	if err != nil {
		return nil, err
	}
	return &d.Document, nil
}

func (m *mockDocuments) GetDetails(_ context.Context, idOrURL string) (*driving.DocumentDetails, error) {
	d, err := m.find(idOrURL)
	if err != nil {
		return nil, err
	}
	return &driving.DocumentDetails{
		Document:   d.Document,
		Title:      "Perbup PIRT",
		PermitType: "PIRT",
		Sections:   []string{"Pasal 1"},
		Chunks:     make([]domain.Chunk, d.ChunkCount),
	}, nil
}

func (m *mockDocuments) Delete(_ context.Context, idOrURL string) error {
	d, err := m.find(idOrURL)
	if err != nil {
		return err
	}
	m.deleted = append(m.deleted, d.ID)
	return nil
}

type mockHealth struct {
	report driving.HealthReport
}

func (m *mockHealth) Check(_ context.Context) driving.HealthReport {
	return m.report
}
