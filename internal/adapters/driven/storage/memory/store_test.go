package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

func TestStore_ImplementsInterface(t *testing.T) {
	var _ driven.Store = (*Store)(nil)
}

func seed(t *testing.T, s *Store, doc domain.Document, chunks ...domain.Chunk) {
	t.Helper()
	err := s.WithTx(context.Background(), func(tx driven.StoreTx) error {
		if err := tx.CreateDocument(context.Background(), &doc); err != nil {
			return err
		}
		return tx.SaveChunks(context.Background(), chunks)
	})
	require.NoError(t, err)
}

func chunk(id, docID, text, section string, order int, vec ...float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		DocumentID: docID,
		Text:       text,
		Embedding:  vec,
		Metadata: domain.ChunkMetadata{
			SourceURL:  "https://example.go.id/" + docID,
			Section:    section,
			Order:      order,
			PermitType: "PIRT",
			Region:     "DIY",
		},
	}
}

func TestStore_WithTx_CommitsOnSuccess(t *testing.T) {
	s := NewStore()
	doc := domain.Document{ID: "d1", URL: "https://example.go.id/d1", Kind: domain.ContentKindHTML}
	seed(t, s, doc, chunk("c1", "d1", "izin usaha", "Umum", 0, 1, 0))

	got, err := s.GetDocumentByURL(context.Background(), doc.URL)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	count, err := s.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	s := NewStore()
	boom := errors.New("boom")

	err := s.WithTx(context.Background(), func(tx driven.StoreTx) error {
		doc := domain.Document{ID: "d1", URL: "https://example.go.id/d1"}
		require.NoError(t, tx.CreateDocument(context.Background(), &doc))
		require.NoError(t, tx.SaveChunks(context.Background(), []domain.Chunk{chunk("c1", "d1", "x", "Umum", 0)}))
		return boom
	})

	require.ErrorIs(t, err, boom)
	_, err = s.GetDocument(context.Background(), "d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	count, err := s.CountChunks(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestStore_WithTx_ReplaceChunks(t *testing.T) {
	s := NewStore()
	doc := domain.Document{ID: "d1", URL: "https://example.go.id/d1"}
	seed(t, s, doc, chunk("c1", "d1", "lama", "Umum", 0), chunk("c2", "d1", "lama juga", "Umum", 1))

	err := s.WithTx(context.Background(), func(tx driven.StoreTx) error {
		existing, err := tx.GetDocumentByURL(context.Background(), doc.URL)
		if err != nil {
			return err
		}
		existing.ContentHash = "new"
		if err := tx.UpdateDocument(context.Background(), existing); err != nil {
			return err
		}
		if err := tx.DeleteChunks(context.Background(), existing.ID); err != nil {
			return err
		}
		return tx.SaveChunks(context.Background(), []domain.Chunk{chunk("c3", "d1", "baru", "Umum", 0)})
	})
	require.NoError(t, err)

	chunks, err := s.GetChunks(context.Background(), "d1")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "baru", chunks[0].Text)

	got, err := s.GetDocument(context.Background(), "d1")
	require.NoError(t, err)
	assert.Equal(t, "new", got.ContentHash)
}

func TestStoreTx_SaveChunks_UnknownDocument(t *testing.T) {
	s := NewStore()
	err := s.WithTx(context.Background(), func(tx driven.StoreTx) error {
		return tx.SaveChunks(context.Background(), []domain.Chunk{chunk("c1", "missing", "x", "Umum", 0)})
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStoreTx_CreateDocument_DuplicateURL(t *testing.T) {
	s := NewStore()
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/a"})

	err := s.WithTx(context.Background(), func(tx driven.StoreTx) error {
		return tx.CreateDocument(context.Background(), &domain.Document{ID: "d2", URL: "https://example.go.id/a"})
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_SimilaritySearch(t *testing.T) {
	s := NewStore()
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/d1"},
		chunk("far", "d1", "jauh", "A", 0, 0, 1),
		chunk("near", "d1", "dekat", "A", 1, 1, 0.1),
	)

	results, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, domain.Filters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "near", results[0].ChunkID)
	assert.Equal(t, "far", results[1].ChunkID)
}

func TestStore_SimilaritySearch_Filters(t *testing.T) {
	s := NewStore()
	other := chunk("halal", "d1", "halal", "A", 1, 1, 0)
	other.Metadata.PermitType = "HALAL"
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/d1"},
		chunk("pirt", "d1", "pirt", "A", 0, 1, 0), other)

	results, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, domain.Filters{PermitType: "HALAL"}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "halal", results[0].ChunkID)
}

func TestStore_SimilaritySearch_Disabled(t *testing.T) {
	s := NewStore(WithSimilaritySearch(false))
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/d1"}, chunk("c1", "d1", "x", "A", 0, 1, 0))

	assert.False(t, s.SupportsSimilaritySearch())
	results, err := s.SimilaritySearch(context.Background(), []float32{1, 0}, domain.Filters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestStore_LexicalSearch(t *testing.T) {
	s := NewStore()
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/d1"},
		chunk("long", "d1", "Syarat Izin PIRT untuk usaha rumah tangga", "A", 0),
		chunk("short", "d1", "izin pirt", "A", 1),
		chunk("none", "d1", "sertifikat halal", "A", 2),
	)

	tests := []struct {
		name  string
		query string
		limit int
		want  []string
	}{
		{name: "case insensitive shortest first", query: "IZIN PIRT", limit: 10, want: []string{"short", "long"}},
		{name: "limit", query: "izin", limit: 1, want: []string{"short"}},
		{name: "blank query", query: "  ", limit: 10, want: nil},
		{name: "no match", query: "bpom", limit: 10, want: nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results, err := s.LexicalSearch(context.Background(), tt.query, domain.Filters{}, tt.limit)
			require.NoError(t, err)
			var ids []string
			for _, r := range results {
				ids = append(ids, r.ChunkID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestStore_ListDocuments_NewestFirst(t *testing.T) {
	s := NewStore()
	now := time.Now()
	seed(t, s, domain.Document{ID: "old", URL: "https://example.go.id/old", CreatedAt: now.Add(-time.Hour)},
		chunk("c1", "old", "x", "A", 0))
	seed(t, s, domain.Document{ID: "new", URL: "https://example.go.id/new", CreatedAt: now})

	docs, err := s.ListDocuments(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "new", docs[0].ID)
	assert.Equal(t, 0, docs[0].ChunkCount)
	assert.Equal(t, "old", docs[1].ID)
	assert.Equal(t, 1, docs[1].ChunkCount)
}

func TestStore_DeleteDocument_Cascades(t *testing.T) {
	s := NewStore()
	seed(t, s, domain.Document{ID: "d1", URL: "https://example.go.id/d1"}, chunk("c1", "d1", "x", "A", 0))

	require.NoError(t, s.DeleteDocument(context.Background(), "d1"))

	_, err := s.GetDocumentByURL(context.Background(), "https://example.go.id/d1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	chunks, err := s.GetChunks(context.Background(), "d1")
	require.NoError(t, err)
	assert.Empty(t, chunks)

	assert.ErrorIs(t, s.DeleteDocument(context.Background(), "d1"), domain.ErrNotFound)
}

func TestStore_WithTx_CancelledContext(t *testing.T) {
	s := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := s.WithTx(ctx, func(driven.StoreTx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
