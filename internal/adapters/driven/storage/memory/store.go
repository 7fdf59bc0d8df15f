// Package memory provides in-memory implementations of driven ports.
// They back tests and the "memory" store backend.
package memory

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/vecmath"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is an in-memory implementation of driven.Store.
// Transactions work on a copy of the state that replaces it on commit.
type Store struct {
	mu         sync.RWMutex
	state      state
	similarity bool
}

type state struct {
	documents map[string]domain.Document
	byURL     map[string]string
	chunks    map[string][]domain.Chunk
}

func newState() state {
	return state{
		documents: make(map[string]domain.Document),
		byURL:     make(map[string]string),
		chunks:    make(map[string][]domain.Chunk),
	}
}

func (s state) clone() state {
	return state{
		documents: maps.Clone(s.documents),
		byURL:     maps.Clone(s.byURL),
		chunks:    maps.Clone(s.chunks),
	}
}

// Option configures a Store.
type Option func(*Store)

// WithSimilaritySearch toggles vector search support. Enabled by default.
func WithSimilaritySearch(enabled bool) Option {
	return func(s *Store) {
		s.similarity = enabled
	}
}

// NewStore creates a new in-memory store.
func NewStore(opts ...Option) *Store {
	s := &Store{state: newState(), similarity: true}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTx runs fn against a private copy of the store and publishes the
// copy only if fn succeeds. Writers are serialised.
func (s *Store) WithTx(ctx context.Context, fn func(tx driven.StoreTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	tx := &memoryTx{state: s.state.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// SupportsSimilaritySearch reports whether vector search is enabled.
func (s *Store) SupportsSimilaritySearch() bool {
	return s.similarity
}

// SimilaritySearch ranks filtered chunks by cosine distance to vector.
func (s *Store) SimilaritySearch(
	_ context.Context, vector []float32, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	if !s.similarity {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	candidates := s.filtered(filters)
	embeddings := make([][]float32, len(candidates))
	for i, c := range candidates {
		embeddings[i] = c.Embedding
	}

	var results []domain.RetrievedChunk
	for _, i := range vecmath.Nearest(vector, embeddings, limit) {
		results = append(results, retrieved(candidates[i]))
	}
	return results, nil
}

// LexicalSearch returns chunks containing query, shortest text first.
func (s *Store) LexicalSearch(
	_ context.Context, query string, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []domain.Chunk
	for _, c := range s.filtered(filters) {
		if strings.Contains(strings.ToLower(c.Text), needle) {
			matches = append(matches, c)
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return len(matches[i].Text) < len(matches[j].Text)
	})

	results := make([]domain.RetrievedChunk, 0, min(limit, len(matches)))
	for _, c := range matches[:min(limit, len(matches))] {
		results = append(results, retrieved(c))
	}
	return results, nil
}

// filtered returns chunks matching filters in a stable order.
// Caller must hold the read lock.
func (s *Store) filtered(filters domain.Filters) []domain.Chunk {
	docIDs := make([]string, 0, len(s.state.chunks))
	for id := range s.state.chunks {
		docIDs = append(docIDs, id)
	}
	sort.Strings(docIDs)

	var out []domain.Chunk
	for _, id := range docIDs {
		for _, c := range s.state.chunks[id] {
			if filters.Matches(c.Metadata) {
				out = append(out, c)
			}
		}
	}
	return out
}

func retrieved(c domain.Chunk) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Text:       c.Text,
		Metadata:   c.Metadata,
	}
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.state.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// GetDocumentByURL retrieves a document by its URL.
func (s *Store) GetDocumentByURL(_ context.Context, url string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.byURLLookup(url)
}

// ListDocuments returns all documents with chunk counts, newest first.
func (s *Store) ListDocuments(_ context.Context) ([]domain.DocumentInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.DocumentInfo, 0, len(s.state.documents))
	for id, doc := range s.state.documents {
		result = append(result, domain.DocumentInfo{Document: doc, ChunkCount: len(s.state.chunks[id])})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].URL < result[j].URL
	})
	return result, nil
}

// GetChunks retrieves all chunks for a document in insertion order.
func (s *Store) GetChunks(_ context.Context, documentID string) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunks, ok := s.state.chunks[documentID]
	if !ok {
		return nil, nil
	}
	return append([]domain.Chunk(nil), chunks...), nil
}

// DeleteDocument removes a document and its chunks.
func (s *Store) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.state.documents[id]
	if !ok {
		return domain.ErrNotFound
	}
	delete(s.state.documents, id)
	delete(s.state.byURL, doc.URL)
	delete(s.state.chunks, id)
	return nil
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := 0
	for _, chunks := range s.state.chunks {
		total += len(chunks)
	}
	return total, nil
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error {
	return nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

func (s state) byURLLookup(url string) (*domain.Document, error) {
	id, ok := s.byURL[url]
	if !ok {
		return nil, domain.ErrNotFound
	}
	doc := s.documents[id]
	return &doc, nil
}

// ==================== Transaction ====================

type memoryTx struct {
	state state
}

var _ driven.StoreTx = (*memoryTx)(nil)

func (t *memoryTx) GetDocumentByURL(_ context.Context, url string) (*domain.Document, error) {
	return t.state.byURLLookup(url)
}

func (t *memoryTx) CreateDocument(_ context.Context, doc *domain.Document) error {
	if doc.ID == "" || doc.URL == "" {
		return domain.ErrInvalidInput
	}
	if _, exists := t.state.byURL[doc.URL]; exists {
		return domain.ErrInvalidInput
	}
	t.state.documents[doc.ID] = *doc
	t.state.byURL[doc.URL] = doc.ID
	return nil
}

func (t *memoryTx) UpdateDocument(_ context.Context, doc *domain.Document) error {
	existing, ok := t.state.documents[doc.ID]
	if !ok {
		return domain.ErrNotFound
	}
	existing.Kind = doc.Kind
	existing.ContentHash = doc.ContentHash
	existing.UploadedBy = doc.UploadedBy
	existing.UpdatedAt = doc.UpdatedAt
	t.state.documents[doc.ID] = existing
	return nil
}

func (t *memoryTx) DeleteChunks(_ context.Context, documentID string) error {
	delete(t.state.chunks, documentID)
	return nil
}

func (t *memoryTx) SaveChunks(_ context.Context, chunks []domain.Chunk) error {
	for _, c := range chunks {
		if _, ok := t.state.documents[c.DocumentID]; !ok {
			return domain.ErrNotFound
		}
	}
	for _, c := range chunks {
		// Append to a fresh slice so the committed state is never aliased.
		existing := t.state.chunks[c.DocumentID]
		t.state.chunks[c.DocumentID] = append(existing[:len(existing):len(existing)], c)
	}
	return nil
}
