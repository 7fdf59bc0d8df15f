package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/memory"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// mockAnswerService implements driving.AnswerService.
type mockAnswerService struct {
	answer   *domain.Answer
	err      error
	question domain.Question
}

func (m *mockAnswerService) Answer(_ context.Context, q domain.Question) (*domain.Answer, error) {
	m.question = q
	if m.err != nil {
		return nil, m.err
	}
	if m.answer == nil {
		return domain.NewRefusal(domain.StateNoEvidence), nil
	}
	return m.answer, nil
}

// mockRetrievalService implements driving.RetrievalService.
type mockRetrievalService struct {
	results []domain.RetrievedChunk
	err     error
	query   string
	filters domain.Filters
}

func (m *mockRetrievalService) Search(_ context.Context, query string, filters domain.Filters) ([]domain.RetrievedChunk, error) {
	m.query = query
	m.filters = filters
	return m.results, m.err
}

// mockIngestionService implements driving.IngestionService.
type mockIngestionService struct {
	specs []domain.SourceSpec
	fail  map[string]error
}

func (m *mockIngestionService) Upsert(_ context.Context, spec domain.SourceSpec) (*domain.IngestResult, error) {
	m.specs = append(m.specs, spec)
	if err := m.fail[spec.URL]; err != nil {
		return nil, err
	}
	return &domain.IngestResult{URL: spec.URL, DocumentID: "doc-" + spec.URL, ChunkCount: 2, Created: true}, nil
}

func (m *mockIngestionService) UpsertBatch(ctx context.Context, specs []domain.SourceSpec) []domain.IngestResult {
	results := make([]domain.IngestResult, len(specs))
	for i, spec := range specs {
		r, err := m.Upsert(ctx, spec)
		if err != nil {
			results[i] = domain.IngestResult{URL: spec.URL, Err: err}
			continue
		}
		results[i] = *r
	}
	return results
}

// mockDocumentService implements driving.DocumentService.
type mockDocumentService struct {
	docs    []domain.DocumentInfo
	details *driving.DocumentDetails
	err     error
	deleted string
}

func (m *mockDocumentService) List(_ context.Context) ([]domain.DocumentInfo, error) {
	return m.docs, m.err
}

func (m *mockDocumentService) Get(_ context.Context, idOrURL string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == idOrURL || m.docs[i].URL == idOrURL {
			return &m.docs[i].Document, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) GetDetails(_ context.Context, _ string) (*driving.DocumentDetails, error) {
	if m.err != nil {
		return nil, m.err
	}
	if m.details == nil {
		return nil, domain.ErrNotFound
	}
	return m.details, nil
}

func (m *mockDocumentService) Delete(_ context.Context, idOrURL string) error {
	m.deleted = idOrURL
	return m.err
}

// mockHealthService implements driving.HealthService.
type mockHealthService struct {
	report driving.HealthReport
}

func (m *mockHealthService) Check(_ context.Context) driving.HealthReport {
	return m.report
}

// mockPromptManager implements PromptManager.
type mockPromptManager struct {
	prompts  map[string]string
	reloaded bool
}

func (m *mockPromptManager) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptManager) Reload()                       { m.reloaded = true }
func (m *mockPromptManager) Dir() string                   { return "/tmp/aksara/prompts" }
func (m *mockPromptManager) Watch(_ context.Context) error { return nil }

func (m *mockPromptManager) Names() []string {
	return []string{"qa_system", "rerank"}
}

// testServices bundles the mocks installed by setupTestServices.
type testServices struct {
	answer    *mockAnswerService
	retrieval *mockRetrievalService
	ingestion *mockIngestionService
	documents *mockDocumentService
	health    *mockHealthService
	prompts   *mockPromptManager
	config    *memory.ConfigStore
}

// setupTestServices installs fresh mocks and returns them with a cleanup func.
func setupTestServices() (*testServices, func()) {
	ts := &testServices{
		answer:    &mockAnswerService{},
		retrieval: &mockRetrievalService{},
		ingestion: &mockIngestionService{},
		documents: &mockDocumentService{},
		health:    &mockHealthService{report: driving.HealthReport{Status: driving.StatusOK}},
		prompts:   &mockPromptManager{prompts: map[string]string{"qa_system": "Jawab hanya dari konteks.", "rerank": "Nilai relevansi."}},
		config:    memory.NewConfigStore(),
	}

	prevLoader := loader
	loader = nil
	SetServices(&Services{
		Answer:    ts.answer,
		Retrieval: ts.retrieval,
		Ingestion: ts.ingestion,
		Documents: ts.documents,
		Health:    ts.health,
		Prompts:   ts.prompts,
		Config:    ts.config,
		Settings:  domain.DefaultSettings(),
	})

	return ts, func() {
		SetServices(nil)
		loader = prevLoader
	}
}

// resetFlags restores every flag to its default so package-level flag
// variables do not leak between executions.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

// execute runs the root command with args and stdin, returning its stdout.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(new(bytes.Buffer))
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		resetFlags(rootCmd)
	})

	err := rootCmd.Execute()
	return buf.String(), err
}
