package services

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/memory"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockFetcher serves bodies from a map keyed by URL.
type mockFetcher struct {
	mu     sync.Mutex
	bodies map[string]string
	err    error
	calls  int
}

func (m *mockFetcher) Fetch(_ context.Context, url string, kind domain.ContentKind) (*domain.RawSource, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	body, ok := m.bodies[url]
	if !ok {
		return nil, &domain.FetchError{URL: url, StatusCode: 404}
	}
	return &domain.RawSource{URL: url, Kind: kind, Content: []byte(body)}, nil
}

// mockNormalisers treats the body as text. Lines starting with "# " open a
// new section.
type mockNormalisers struct {
	err error
}

func (m *mockNormalisers) Normalise(_ context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error) {
	if m.err != nil {
		return nil, m.err
	}

	out := &domain.NormalisedSource{Text: strings.TrimSpace(string(raw.Content))}
	var current *domain.Section
	for _, line := range strings.Split(string(raw.Content), "\n") {
		if heading, ok := strings.CutPrefix(line, "# "); ok {
			if out.Title == "" {
				out.Title = heading
			}
			out.Sections = append(out.Sections, domain.Section{Heading: heading})
			current = &out.Sections[len(out.Sections)-1]
			continue
		}
		if current != nil && strings.TrimSpace(line) != "" {
			current.Text = strings.TrimSpace(current.Text + " " + line)
		}
	}
	return out, nil
}

func (m *mockNormalisers) Register(_ driven.Normaliser) {}

func (m *mockNormalisers) SupportedKinds() []domain.ContentKind {
	return []domain.ContentKind{domain.ContentKindHTML, domain.ContentKindPDF, domain.ContentKindMarkdown}
}

// mockEmbedder returns deterministic vectors of a fixed dimension.
type mockEmbedder struct {
	dim     int
	err     error
	pingErr error

	// short drops the last vector of every batch.
	short bool

	// wrongDim makes every vector one element too long.
	wrongDim bool
}

func (m *mockEmbedder) vector(text string) []float32 {
	dim := m.dim
	if m.wrongDim {
		dim++
	}
	v := make([]float32, dim)
	for i := range v {
		v[i] = float32(len(text)%7+i+1) / 10
	}
	return v
}

func (m *mockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.vector(text), nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, 0, len(texts))
	for _, t := range texts {
		out = append(out, m.vector(t))
	}
	if m.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int              { return m.dim }
func (m *mockEmbedder) ModelName() string            { return "mock-embed" }
func (m *mockEmbedder) Ping(_ context.Context) error { return m.pingErr }
func (m *mockEmbedder) Close() error                 { return nil }

// mockLLM records generation requests and returns canned output.
type mockLLM struct {
	text     string
	model    string
	genErr   error
	order    []int
	rankErr  error
	pingErr  error
	requests []driven.GenerateRequest
	ranked   [][]string
}

func (m *mockLLM) Generate(_ context.Context, req driven.GenerateRequest) (*driven.Generation, error) {
	m.requests = append(m.requests, req)
	if m.genErr != nil {
		return nil, m.genErr
	}
	prompt, response := 10, 20
	return &driven.Generation{
		Text:           m.text,
		Model:          m.model,
		PromptTokens:   &prompt,
		ResponseTokens: &response,
	}, nil
}

func (m *mockLLM) Rerank(_ context.Context, _ string, candidates []string) ([]int, error) {
	m.ranked = append(m.ranked, candidates)
	if m.rankErr != nil {
		return nil, m.rankErr
	}
	return m.order, nil
}

func (m *mockLLM) ModelName() string            { return "mock-llm" }
func (m *mockLLM) Ping(_ context.Context) error { return m.pingErr }
func (m *mockLLM) Close() error                 { return nil }

// mockPromptStore serves prompts from a map.
type mockPromptStore struct {
	prompts map[string]string
}

func (m *mockPromptStore) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", errors.New("unknown prompt")
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// faultyStore wraps a memory store and fails selected operations.
type faultyStore struct {
	*memory.Store
	similarityErr error
	lexicalErr    error
	pingErr       error
	countErr      error
	saveErr       error
}

func (f *faultyStore) SimilaritySearch(
	ctx context.Context, v []float32, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	if f.similarityErr != nil {
		return nil, f.similarityErr
	}
	return f.Store.SimilaritySearch(ctx, v, filters, limit)
}

func (f *faultyStore) LexicalSearch(
	ctx context.Context, q string, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	if f.lexicalErr != nil {
		return nil, f.lexicalErr
	}
	return f.Store.LexicalSearch(ctx, q, filters, limit)
}

func (f *faultyStore) Ping(ctx context.Context) error {
	if f.pingErr != nil {
		return f.pingErr
	}
	return f.Store.Ping(ctx)
}

func (f *faultyStore) CountChunks(ctx context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.Store.CountChunks(ctx)
}

func (f *faultyStore) WithTx(ctx context.Context, fn func(tx driven.StoreTx) error) error {
	if f.saveErr == nil {
		return f.Store.WithTx(ctx, fn)
	}
	return f.Store.WithTx(ctx, func(tx driven.StoreTx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return f.saveErr
	})
}

// --- Helpers ---

// words returns n space-separated words.
func words(prefix string, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = prefix + strings.Repeat("x", i%5)
	}
	return strings.Join(parts, " ")
}
