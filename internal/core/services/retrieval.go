package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
	"github.com/aksara-legal/aksara/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// RetrievalService fuses semantic and lexical candidates and reranks them.
type RetrievalService struct {
	store    driven.Store
	embedder driven.EmbeddingService
	llm      driven.LLMService
	limits   domain.RetrievalSettings
}

// NewRetrievalService creates a new retrieval service.
// The embedder and llm are optional: without an embedder only the lexical
// branch runs, and without an llm fusion order is final.
func NewRetrievalService(
	store driven.Store,
	embedder driven.EmbeddingService,
	llm driven.LLMService,
	limits domain.RetrievalSettings,
) *RetrievalService {
	if limits.CandidateLimit <= 0 {
		limits.CandidateLimit = domain.DefaultRetrievalTopK
	}
	if limits.FinalLimit <= 0 {
		limits.FinalLimit = domain.DefaultRerankTopK
	}
	return &RetrievalService{
		store:    store,
		embedder: embedder,
		llm:      llm,
		limits:   limits,
	}
}

// Search returns at most FinalLimit chunks for query.
func (s *RetrievalService) Search(
	ctx context.Context, query string, filters domain.Filters,
) ([]domain.RetrievedChunk, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q, filters: %+v", query, filters)

	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedChunk{}, nil
	}

	semantic, lexical, err := s.branches(ctx, query, filters)
	if err != nil {
		return nil, err
	}
	logger.Debug("Candidates: semantic=%d lexical=%d", len(semantic), len(lexical))

	fused := Fuse(semantic, lexical)
	if len(fused) == 0 {
		logger.Info("No candidates for query")
		return []domain.RetrievedChunk{}, nil
	}
	logger.Debug("Fused candidates: %d", len(fused))

	ranked := s.rerank(ctx, query, fused)
	if len(ranked) > s.limits.FinalLimit {
		ranked = ranked[:s.limits.FinalLimit]
	}
	logger.Info("Retrieved %d chunks", len(ranked))
	return ranked, nil
}

// branches runs the semantic and lexical searches concurrently. A failing
// branch is logged and dropped; only both failing is an error.
func (s *RetrievalService) branches(
	ctx context.Context, query string, filters domain.Filters,
) (semantic, lexical []domain.RetrievedChunk, err error) {
	var semanticErr, lexicalErr error
	useSemantic := s.embedder != nil && s.store.SupportsSimilaritySearch()
	if !useSemantic {
		logger.Debug("Semantic branch skipped")
	}

	var wg sync.WaitGroup
	if useSemantic {
		wg.Add(1)
		go func() {
			defer wg.Done()
			semantic, semanticErr = s.semanticSearch(ctx, query, filters)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		lexical, lexicalErr = s.lexicalSearch(ctx, query, filters)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	switch {
	case semanticErr != nil && lexicalErr != nil:
		return nil, nil, fmt.Errorf("retrieval: %w", errors.Join(semanticErr, lexicalErr))
	case semanticErr != nil:
		logger.Warn("Semantic search failed, using lexical results only: %v", semanticErr)
	case lexicalErr != nil && !useSemantic:
		return nil, nil, fmt.Errorf("retrieval: %w", lexicalErr)
	case lexicalErr != nil:
		logger.Warn("Lexical search failed, using semantic results only: %v", lexicalErr)
	}
	return semantic, lexical, nil
}

func (s *RetrievalService) semanticSearch(
	ctx context.Context, query string, filters domain.Filters,
) ([]domain.RetrievedChunk, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &domain.EmbeddingError{Model: s.embedder.ModelName(), Err: err}
	}
	if len(vector) == 0 {
		return nil, &domain.EmbeddingError{Model: s.embedder.ModelName(), Err: errors.New("empty query embedding")}
	}

	results, err := s.store.SimilaritySearch(ctx, vector, filters, s.limits.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}
	return withScore(results, domain.SemanticBaseScore), nil
}

func (s *RetrievalService) lexicalSearch(
	ctx context.Context, query string, filters domain.Filters,
) ([]domain.RetrievedChunk, error) {
	results, err := s.store.LexicalSearch(ctx, query, filters, s.limits.CandidateLimit)
	if err != nil {
		return nil, fmt.Errorf("lexical search: %w", err)
	}
	return withScore(results, domain.LexicalBaseScore), nil
}

func withScore(chunks []domain.RetrievedChunk, score float64) []domain.RetrievedChunk {
	for i := range chunks {
		chunks[i].Score = score
	}
	return chunks
}

// Fuse merges branch results keyed by source URL, section and order.
// A duplicate keeps the first-seen chunk with the higher of the two scores.
// The result is sorted by descending score, ties in first-seen order.
func Fuse(branches ...[]domain.RetrievedChunk) []domain.RetrievedChunk {
	seen := make(map[domain.FusionKey]int)
	var fused []domain.RetrievedChunk

	for _, branch := range branches {
		for _, c := range branch {
			key := c.Key()
			if i, ok := seen[key]; ok {
				fused[i].Score = max(fused[i].Score, c.Score)
				continue
			}
			seen[key] = len(fused)
			fused = append(fused, c)
		}
	}

	sort.SliceStable(fused, func(i, j int) bool {
		return fused[i].Score > fused[j].Score
	})
	return fused
}

// rerank reorders candidates by the model's permutation, falling back to
// the given order on any failure.
func (s *RetrievalService) rerank(
	ctx context.Context, query string, candidates []domain.RetrievedChunk,
) []domain.RetrievedChunk {
	if s.llm == nil || len(candidates) < 2 {
		return candidates
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}

	order, err := s.llm.Rerank(ctx, query, texts)
	if err != nil {
		logger.Warn("Rerank failed, keeping fusion order: %v", err)
		return candidates
	}

	reordered, ok := ApplyPermutation(candidates, order)
	if !ok {
		logger.Warn("Rerank returned an invalid order %v for %d candidates, keeping fusion order",
			order, len(candidates))
		return candidates
	}
	return reordered
}

// ApplyPermutation reorders items by order. It reports false when order
// is empty, longer than items, names an index out of range, or repeats an
// index.
//
// A partial order is accepted: the named items come first and the omitted
// ones follow in their original relative order. Omitted items are kept,
// not dropped, so truncation after rerank still sees every candidate.
func ApplyPermutation[T any](items []T, order []int) ([]T, bool) {
	if len(order) == 0 || len(order) > len(items) {
		return nil, false
	}

	used := make([]bool, len(items))
	out := make([]T, 0, len(items))
	for _, i := range order {
		if i < 0 || i >= len(items) || used[i] {
			return nil, false
		}
		used[i] = true
		out = append(out, items[i])
	}
	for i, item := range items {
		if !used[i] {
			out = append(out, item)
		}
	}
	return out, true
}
