package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/memory"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

const (
	pirtURL  = "https://jdih.example.go.id/pirt.html"
	halalURL = "https://jdih.example.go.id/halal.pdf"
)

// seedCorpus stores two documents with three chunks in total.
func seedCorpus(t *testing.T, store driven.Store) {
	t.Helper()
	err := store.WithTx(context.Background(), func(tx driven.StoreTx) error {
		docs := []domain.Document{
			{ID: "doc-pirt", URL: pirtURL, Kind: domain.ContentKindHTML},
			{ID: "doc-halal", URL: halalURL, Kind: domain.ContentKindPDF},
		}
		for i := range docs {
			if err := tx.CreateDocument(context.Background(), &docs[i]); err != nil {
				return err
			}
		}
		return tx.SaveChunks(context.Background(), []domain.Chunk{
			{
				ID: "c1", DocumentID: "doc-pirt",
				Text:      "Izin PIRT diajukan melalui OSS untuk usaha pangan rumah tangga",
				Embedding: []float32{1, 0, 0, 0},
				Metadata: domain.ChunkMetadata{
					SourceURL: pirtURL, SourceTitle: "Perbup PIRT", Section: "Pasal 1",
					PermitType: "PIRT", Region: "DIY", VersionDate: "2023-01-10",
				},
			},
			{
				ID: "c2", DocumentID: "doc-pirt",
				Text:      "Masa berlaku izin PIRT lima tahun",
				Embedding: []float32{0, 1, 0, 0},
				Metadata: domain.ChunkMetadata{
					SourceURL: pirtURL, SourceTitle: "Perbup PIRT", Section: "Pasal 2",
					PermitType: "PIRT", Region: "DIY", VersionDate: "2023-01-10",
				},
			},
			{
				ID: "c3", DocumentID: "doc-halal",
				Text:      "Sertifikat halal wajib bagi produk pangan",
				Embedding: []float32{0, 0, 1, 0},
				Metadata: domain.ChunkMetadata{
					SourceURL: halalURL, Section: "Bab II",
					PermitType: "HALAL", Region: "DIY", VersionDate: "2024-06-30",
				},
			},
		})
	})
	require.NoError(t, err)
}

func chunkIDs(chunks []domain.RetrievedChunk) []string {
	ids := make([]string, len(chunks))
	for i, c := range chunks {
		ids[i] = c.ChunkID
	}
	return ids
}

func TestSearch_BlankQuery(t *testing.T) {
	svc := NewRetrievalService(memory.NewStore(), &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "  ", domain.Filters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSearch_EmptyCorpus(t *testing.T) {
	llm := &mockLLM{}
	svc := NewRetrievalService(memory.NewStore(), &mockEmbedder{dim: testDim}, llm, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "Apa itu PIRT?", domain.Filters{})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	assert.Empty(t, llm.ranked)
}

func TestSearch_LexicalOnlyWhenSimilarityUnsupported(t *testing.T) {
	store := memory.NewStore(memory.WithSimilaritySearch(false))
	seedCorpus(t, store)
	svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "izin pirt", domain.Filters{})
	require.NoError(t, err)
	assert.Equal(t, []string{"c2", "c1"}, chunkIDs(got))
	for _, c := range got {
		assert.Equal(t, domain.LexicalBaseScore, c.Score)
	}
}

func TestSearch_FusionKeepsHigherScore(t *testing.T) {
	store := memory.NewStore()
	seedCorpus(t, store)
	svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "halal", domain.Filters{})
	require.NoError(t, err)
	require.Len(t, got, 3)
	for _, c := range got {
		assert.Equal(t, domain.SemanticBaseScore, c.Score)
	}
}

func TestSearch_Filters(t *testing.T) {
	store := memory.NewStore()
	seedCorpus(t, store)
	svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "pangan", domain.Filters{PermitType: "HALAL"})
	require.NoError(t, err)
	assert.Equal(t, []string{"c3"}, chunkIDs(got))
}

func TestSearch_Rerank(t *testing.T) {
	tests := []struct {
		name    string
		order   []int
		rankErr error
		want    []string
	}{
		{name: "permutation applied", order: []int{1, 0}, want: []string{"c1", "c2"}},
		{name: "partial permutation", order: []int{1}, want: []string{"c1", "c2"}},
		{name: "out of range falls back", order: []int{5, 0}, want: []string{"c2", "c1"}},
		{name: "duplicate falls back", order: []int{0, 0}, want: []string{"c2", "c1"}},
		{name: "empty falls back", order: nil, want: []string{"c2", "c1"}},
		{name: "error falls back", rankErr: errors.New("timeout"), want: []string{"c2", "c1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewStore(memory.WithSimilaritySearch(false))
			seedCorpus(t, store)
			llm := &mockLLM{order: tt.order, rankErr: tt.rankErr}
			svc := NewRetrievalService(store, nil, llm, domain.RetrievalSettings{})

			got, err := svc.Search(context.Background(), "izin pirt", domain.Filters{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, chunkIDs(got))
			require.Len(t, llm.ranked, 1)
			assert.Len(t, llm.ranked[0], 2)
		})
	}
}

func TestSearch_SingleCandidateSkipsRerank(t *testing.T) {
	store := memory.NewStore(memory.WithSimilaritySearch(false))
	seedCorpus(t, store)
	llm := &mockLLM{order: []int{0}}
	svc := NewRetrievalService(store, nil, llm, domain.RetrievalSettings{})

	got, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Empty(t, llm.ranked)
}

func TestSearch_TruncatesToFinalLimit(t *testing.T) {
	store := memory.NewStore()
	seedCorpus(t, store)
	svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil,
		domain.RetrievalSettings{CandidateLimit: 10, FinalLimit: 2})

	got, err := svc.Search(context.Background(), "pangan", domain.Filters{})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestSearch_BranchFailures(t *testing.T) {
	boom := errors.New("boom")

	t.Run("semantic failure degrades to lexical", func(t *testing.T) {
		store := &faultyStore{Store: memory.NewStore(), similarityErr: boom}
		seedCorpus(t, store)
		svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

		got, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
		require.NoError(t, err)
		assert.Equal(t, []string{"c3"}, chunkIDs(got))
	})

	t.Run("embedding failure degrades to lexical", func(t *testing.T) {
		store := memory.NewStore()
		seedCorpus(t, store)
		svc := NewRetrievalService(store, &mockEmbedder{dim: testDim, err: boom}, nil, domain.RetrievalSettings{})

		got, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
		require.NoError(t, err)
		assert.Equal(t, []string{"c3"}, chunkIDs(got))
	})

	t.Run("lexical failure degrades to semantic", func(t *testing.T) {
		store := &faultyStore{Store: memory.NewStore(), lexicalErr: boom}
		seedCorpus(t, store)
		svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

		got, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})

	t.Run("both branches fail", func(t *testing.T) {
		store := &faultyStore{Store: memory.NewStore(), similarityErr: boom, lexicalErr: boom}
		seedCorpus(t, store)
		svc := NewRetrievalService(store, &mockEmbedder{dim: testDim}, nil, domain.RetrievalSettings{})

		_, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
		assert.ErrorIs(t, err, boom)
	})

	t.Run("lexical failure without semantic branch", func(t *testing.T) {
		store := &faultyStore{Store: memory.NewStore(), lexicalErr: boom}
		svc := NewRetrievalService(store, nil, nil, domain.RetrievalSettings{})

		_, err := svc.Search(context.Background(), "sertifikat", domain.Filters{})
		assert.ErrorIs(t, err, boom)
	})
}

func TestFuse(t *testing.T) {
	chunk := func(id, section string, order int, score float64) domain.RetrievedChunk {
		return domain.RetrievedChunk{
			ChunkID:  id,
			Score:    score,
			Metadata: domain.ChunkMetadata{SourceURL: pirtURL, Section: section, Order: order},
		}
	}

	semantic := []domain.RetrievedChunk{chunk("a", "Pasal 1", 0, 0.5), chunk("b", "Pasal 1", 1, 0.5)}
	lexical := []domain.RetrievedChunk{chunk("c", "Pasal 2", 0, 0.3), chunk("b-dup", "Pasal 1", 1, 0.3)}

	got := Fuse(lexical, semantic)
	assert.Equal(t, []string{"b-dup", "a", "c"}, chunkIDs(got))
	assert.Equal(t, []float64{0.5, 0.5, 0.3}, []float64{got[0].Score, got[1].Score, got[2].Score})

	assert.Empty(t, Fuse())
}

func TestApplyPermutation(t *testing.T) {
	items := []string{"a", "b", "c"}

	tests := []struct {
		name   string
		order  []int
		want   []string
		wantOK bool
	}{
		{name: "full", order: []int{2, 0, 1}, want: []string{"c", "a", "b"}, wantOK: true},
		{name: "partial appends rest", order: []int{2}, want: []string{"c", "a", "b"}, wantOK: true},
		{name: "identity", order: []int{0, 1, 2}, want: items, wantOK: true},
		{name: "empty", order: []int{}},
		{name: "too long", order: []int{0, 1, 2, 0}},
		{name: "negative", order: []int{-1}},
		{name: "out of range", order: []int{3}},
		{name: "duplicate", order: []int{1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ApplyPermutation(items, tt.order)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestApplyPermutation_PartialOrderKeepsOmitted(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	got, ok := ApplyPermutation(items, []int{2})
	require.True(t, ok)
	assert.Equal(t, []string{"c", "a", "b", "d", "e"}, got)

	got, ok = ApplyPermutation(items, []int{4, 1})
	require.True(t, ok)
	assert.Equal(t, []string{"e", "b", "a", "c", "d"}, got)
	assert.Len(t, got, len(items))
}
