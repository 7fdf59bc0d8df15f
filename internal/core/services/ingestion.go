package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
	"github.com/aksara-legal/aksara/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestionService = (*IngestionService)(nil)

// embedBatchSize bounds the texts sent in one embedding request.
const embedBatchSize = 64

// IngestionConfig controls the ingestion pipeline.
type IngestionConfig struct {
	// VectorDim is the corpus embedding dimension. Zero disables the check.
	VectorDim int

	// Concurrency bounds parallel sources in UpsertBatch. Values below 1 mean 1.
	Concurrency int
}

// IngestionService fetches, normalises, chunks, embeds and stores sources.
type IngestionService struct {
	store       driven.Store
	fetcher     driven.Fetcher
	normalisers driven.NormaliserRegistry
	chunker     driven.Chunker
	embedder    driven.EmbeddingService
	cfg         IngestionConfig

	now   func() time.Time
	newID func() string
}

// NewIngestionService creates a new ingestion service.
func NewIngestionService(
	store driven.Store,
	fetcher driven.Fetcher,
	normalisers driven.NormaliserRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	cfg IngestionConfig,
) *IngestionService {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &IngestionService{
		store:       store,
		fetcher:     fetcher,
		normalisers: normalisers,
		chunker:     chunker,
		embedder:    embedder,
		cfg:         cfg,
		now:         time.Now,
		newID:       uuid.NewString,
	}
}

// Upsert ingests one source. Nothing is written unless every chunk was
// embedded; the document row and its chunks change in one transaction.
func (s *IngestionService) Upsert(ctx context.Context, spec domain.SourceSpec) (*domain.IngestResult, error) {
	logger.Section("Ingest " + spec.URL)

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}

	kind := spec.ResolvedKind()
	raw, err := s.fetcher.Fetch(ctx, spec.URL, kind)
	if err != nil {
		return nil, err
	}
	logger.Debug("Fetched %d bytes as %s", len(raw.Content), kind)

	normalised, err := s.normalisers.Normalise(ctx, raw)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(normalised.Text) == "" {
		return nil, &domain.ExtractionError{URL: spec.URL, Kind: kind, Reason: "no text extracted"}
	}

	hash := contentHash(normalised.Text)
	sections := normalised.Sections
	if len(sections) == 0 {
		sections = []domain.Section{{Heading: domain.DefaultSectionHeading, Text: normalised.Text}}
	}

	windows := s.chunk(sections)
	if len(windows) == 0 {
		return nil, &domain.ExtractionError{URL: spec.URL, Kind: kind, Reason: "no chunks produced"}
	}
	logger.Debug("Sections: %d, chunks: %d", len(sections), len(windows))

	vectors, err := s.embed(ctx, windows)
	if err != nil {
		return nil, err
	}

	title := spec.Title
	if title == "" {
		title = normalised.Title
	}
	now := s.now().UTC()

	result := &domain.IngestResult{URL: spec.URL, ContentHash: hash, ChunkCount: len(windows)}
	err = s.store.WithTx(ctx, func(tx driven.StoreTx) error {
		doc, err := tx.GetDocumentByURL(ctx, spec.URL)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			doc = &domain.Document{
				ID:          s.newID(),
				URL:         spec.URL,
				Kind:        kind,
				ContentHash: hash,
				UploadedBy:  spec.UploadedBy,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			if err := tx.CreateDocument(ctx, doc); err != nil {
				return err
			}
			result.Created = true
		case err != nil:
			return err
		default:
			doc.Kind = kind
			doc.ContentHash = hash
			if spec.UploadedBy != "" {
				doc.UploadedBy = spec.UploadedBy
			}
			doc.UpdatedAt = now
			if err := tx.UpdateDocument(ctx, doc); err != nil {
				return err
			}
			if err := tx.DeleteChunks(ctx, doc.ID); err != nil {
				return err
			}
		}
		result.DocumentID = doc.ID

		chunks := make([]domain.Chunk, len(windows))
		for i, w := range windows {
			chunks[i] = domain.Chunk{
				ID:         s.newID(),
				DocumentID: doc.ID,
				Text:       w.Text,
				Embedding:  vectors[i],
				Metadata: domain.ChunkMetadata{
					SourceURL:   spec.URL,
					SourceTitle: title,
					Section:     w.Section,
					Order:       w.Order,
					PermitType:  spec.PermitType,
					Region:      spec.Region,
					Language:    domain.DefaultLanguage,
					VersionDate: spec.VersionDate,
					Selectors:   spec.Selectors,
					IngestedAt:  now,
				},
			}
		}
		return tx.SaveChunks(ctx, chunks)
	})
	if err != nil {
		return nil, fmt.Errorf("store %s: %w", spec.URL, err)
	}

	logger.Info("Ingested %s: %d chunks (created=%t)", spec.URL, result.ChunkCount, result.Created)
	return result, nil
}

// UpsertBatch ingests specs with at most Concurrency sources in flight.
func (s *IngestionService) UpsertBatch(ctx context.Context, specs []domain.SourceSpec) []domain.IngestResult {
	results := make([]domain.IngestResult, len(specs))
	semaphore := make(chan struct{}, s.cfg.Concurrency)

	var wg sync.WaitGroup
	for i, spec := range specs {
		wg.Add(1)
		semaphore <- struct{}{}

		go func(i int, spec domain.SourceSpec) {
			defer func() {
				wg.Done()
				<-semaphore
			}()

			res, err := s.Upsert(ctx, spec)
			if err != nil {
				logger.Warn("Ingest %s failed: %v", spec.URL, err)
				results[i] = domain.IngestResult{URL: spec.URL, Err: err}
				return
			}
			results[i] = *res
		}(i, spec)
	}
	wg.Wait()

	return results
}

// chunk windows every section in section order.
func (s *IngestionService) chunk(sections []domain.Section) []driven.ChunkWindow {
	var windows []driven.ChunkWindow
	for _, section := range sections {
		for w := range s.chunker.Chunks(section.Text, section.Heading) {
			windows = append(windows, w)
		}
	}
	return windows
}

// embed returns one vector per window, validating count and dimension.
func (s *IngestionService) embed(ctx context.Context, windows []driven.ChunkWindow) ([][]float32, error) {
	model := s.embedder.ModelName()
	vectors := make([][]float32, 0, len(windows))

	for start := 0; start < len(windows); start += embedBatchSize {
		end := min(start+embedBatchSize, len(windows))
		texts := make([]string, 0, end-start)
		for _, w := range windows[start:end] {
			texts = append(texts, w.Text)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, &domain.EmbeddingError{Model: model, Err: err}
		}
		if len(batch) != len(texts) {
			return nil, &domain.EmbeddingError{
				Model: model,
				Err:   fmt.Errorf("got %d embeddings for %d texts", len(batch), len(texts)),
			}
		}
		for i, v := range batch {
			if len(v) == 0 || (s.cfg.VectorDim > 0 && len(v) != s.cfg.VectorDim) {
				return nil, &domain.EmbeddingError{
					Model: model,
					Err: fmt.Errorf("%w: chunk %d has %d dimensions, want %d",
						domain.ErrDimensionMismatch, start+i, len(v), s.cfg.VectorDim),
				}
			}
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// contentHash returns the SHA-256 hex digest of text.
func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
