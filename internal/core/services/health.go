package services

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// Ensure HealthService implements the interface.
var _ driving.HealthService = (*HealthService)(nil)

// Component names used as keys in HealthReport.Errors.
const (
	ComponentDB        = "db"
	ComponentRAG       = "rag"
	ComponentEmbedding = "embedding"
	ComponentLLM       = "llm"
)

// HealthService probes the store and the AI providers.
type HealthService struct {
	store    driven.Store
	embedder driven.EmbeddingService
	llm      driven.LLMService
}

// NewHealthService creates a new health service. embedder and llm may be nil.
func NewHealthService(store driven.Store, embedder driven.EmbeddingService, llm driven.LLMService) *HealthService {
	return &HealthService{store: store, embedder: embedder, llm: llm}
}

// Check reports the status of every component. An empty corpus is reported
// as "empty" for RAG without degrading the overall status.
func (s *HealthService) Check(ctx context.Context) driving.HealthReport {
	report := driving.HealthReport{
		Status: driving.StatusOK,
		Errors: make(map[string]string),
	}

	fail := func(component string, err error) string {
		report.Errors[component] = err.Error()
		report.Status = driving.StatusDegraded
		return driving.StatusDown
	}

	report.DB = driving.StatusOK
	if err := s.store.Ping(ctx); err != nil {
		report.DB = fail(ComponentDB, err)
		report.RAG = driving.StatusDown
	} else if n, err := s.store.CountChunks(ctx); err != nil {
		report.RAG = fail(ComponentRAG, err)
	} else {
		report.Chunks = n
		report.RAG = driving.StatusOK
		if n == 0 {
			report.RAG = driving.StatusEmpty
		}
	}

	report.Embedding = driving.StatusDown
	if s.embedder == nil {
		report.Errors[ComponentEmbedding] = "not configured"
		report.Status = driving.StatusDegraded
	} else if err := s.embedder.Ping(ctx); err != nil {
		report.Embedding = fail(ComponentEmbedding, err)
	} else {
		report.Embedding = driving.StatusOK
	}

	report.LLM = driving.StatusDown
	if s.llm == nil {
		report.Errors[ComponentLLM] = "not configured"
		report.Status = driving.StatusDegraded
	} else if err := s.llm.Ping(ctx); err != nil {
		report.LLM = fail(ComponentLLM, err)
	} else {
		report.LLM = driving.StatusOK
	}

	if report.DB == driving.StatusDown {
		report.Status = driving.StatusDown
	}
	return report
}
