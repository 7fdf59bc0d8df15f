// Package postgres provides a PostgreSQL implementation of driven.Store
// using pgx and the pgvector extension for similarity search.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/postgres/migrations"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is a Postgres-backed document and chunk store.
type Store struct {
	pool *pgxpool.Pool
	dim  int
}

// NewStore connects to databaseURL, installs the schema for vectors of
// size dim and registers the pgvector types on every pooled connection.
func NewStore(ctx context.Context, databaseURL string, dim int) (*Store, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("%w: vector dimension must be positive", domain.ErrInvalidInput)
	}

	// The extension must exist before pooled connections can register its types.
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	err = migrate(ctx, conn, migrations.FS, dim)
	conn.Close(ctx)
	if err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	return &Store{pool: pool, dim: dim}, nil
}

// migrate applies pending *.up.sql files in version order.
func migrate(ctx context.Context, conn *pgx.Conn, fsys fs.FS, dim int) error {
	_, err := conn.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT now()
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	if err := conn.QueryRow(ctx, "SELECT COALESCE(MAX(version), 0) FROM schema_migrations").
		Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}
	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		script := strings.ReplaceAll(string(content), "{{dim}}", strconv.Itoa(dim))
		if _, err := conn.Exec(ctx, script); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := conn.Exec(ctx, "INSERT INTO schema_migrations (version) VALUES ($1)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ==================== Transactions ====================

// WithTx runs fn in a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx driven.StoreTx) error) error {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&storeTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

type storeTx struct {
	tx pgx.Tx
}

var _ driven.StoreTx = (*storeTx)(nil)

func (t *storeTx) GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error) {
	return scanDocument(t.tx.QueryRow(ctx, selectDocument+" WHERE url = $1", url))
}

func (t *storeTx) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := t.tx.Exec(ctx, `
		INSERT INTO documents (id, url, kind, content_hash, uploaded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, doc.ID, doc.URL, string(doc.Kind), doc.ContentHash, doc.UploadedBy, doc.CreatedAt, doc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (t *storeTx) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	tag, err := t.tx.Exec(ctx, `
		UPDATE documents SET kind = $1, content_hash = $2, uploaded_by = $3, updated_at = $4
		WHERE id = $5
	`, string(doc.Kind), doc.ContentHash, doc.UploadedBy, doc.UpdatedAt, doc.ID)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (t *storeTx) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := t.tx.Exec(ctx, "DELETE FROM chunks WHERE document_id = $1", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (t *storeTx) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	next := make(map[string]int)
	batch := &pgx.Batch{}
	for _, chunk := range chunks {
		seq, ok := next[chunk.DocumentID]
		if !ok {
			if err := t.tx.QueryRow(ctx,
				"SELECT COALESCE(MAX(seq), -1) + 1 FROM chunks WHERE document_id = $1", chunk.DocumentID,
			).Scan(&seq); err != nil {
				return fmt.Errorf("reading chunk sequence: %w", err)
			}
		}
		next[chunk.DocumentID] = seq + 1

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}
		m := chunk.Metadata
		batch.Queue(`
			INSERT INTO chunks (id, document_id, seq, text, section, position, permit_type, region, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`, chunk.ID, chunk.DocumentID, seq, chunk.Text, m.Section, m.Order, m.PermitType, m.Region,
			pgvector.NewVector(chunk.Embedding), string(metadataJSON))
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := t.tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting chunks: %w", err)
	}
	return nil
}

// ==================== Search ====================

// SupportsSimilaritySearch reports true; ranking uses the pgvector <=> operator.
func (s *Store) SupportsSimilaritySearch() bool {
	return true
}

// SimilaritySearch orders filtered chunks by cosine distance.
func (s *Store) SimilaritySearch(
	ctx context.Context, vector []float32, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return nil, nil
	}
	if len(vector) != s.dim {
		return nil, fmt.Errorf("%w: query has %d dimensions, corpus has %d",
			domain.ErrDimensionMismatch, len(vector), s.dim)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, text, metadata FROM chunks
		WHERE ($2::text = '' OR permit_type = $2) AND ($3::text = '' OR region = $3)
		ORDER BY embedding <=> $1, seq
		LIMIT $4
	`, pgvector.NewVector(vector), filters.PermitType, filters.Region, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collectRetrieved(rows)
}

// LexicalSearch matches a case-insensitive substring, shortest text first.
func (s *Store) LexicalSearch(
	ctx context.Context, query string, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, text, metadata FROM chunks
		WHERE strpos(lower(text), $1) > 0
		  AND ($2::text = '' OR permit_type = $2) AND ($3::text = '' OR region = $3)
		ORDER BY length(text), document_id, seq
		LIMIT $4
	`, needle, filters.PermitType, filters.Region, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	return collectRetrieved(rows)
}

func collectRetrieved(rows pgx.Rows) ([]domain.RetrievedChunk, error) {
	defer rows.Close()

	var results []domain.RetrievedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var r domain.RetrievedChunk
		var metadataJSON []byte
		if err := rows.Scan(&r.ChunkID, &r.DocumentID, &r.Text, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &r.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return results, nil
}

// ==================== Documents ====================

const selectDocument = `SELECT id, url, kind, content_hash, uploaded_by, created_at, updated_at FROM documents`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx, selectDocument+" WHERE id = $1", id))
}

// GetDocumentByURL retrieves a document by URL.
func (s *Store) GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error) {
	return scanDocument(s.pool.QueryRow(ctx, selectDocument+" WHERE url = $1", url))
}

// ListDocuments returns all documents with chunk counts, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.url, d.kind, d.content_hash, d.uploaded_by, d.created_at, d.updated_at,
		       COUNT(c.id)
		FROM documents d
		LEFT JOIN chunks c ON c.document_id = d.id
		GROUP BY d.id
		ORDER BY d.created_at DESC, d.url
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var docs []domain.DocumentInfo //nolint:prealloc // size unknown from query
	for rows.Next() {
		var info domain.DocumentInfo
		var kind string
		var count int64
		if err := rows.Scan(&info.ID, &info.URL, &kind, &info.ContentHash, &info.UploadedBy,
			&info.CreatedAt, &info.UpdatedAt, &count); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		info.Kind = domain.ContentKind(kind)
		info.ChunkCount = int(count)
		docs = append(docs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// GetChunks retrieves all chunks for a document in insertion order.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, document_id, text, embedding, metadata FROM chunks
		WHERE document_id = $1
		ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var c domain.Chunk
		var vec pgvector.Vector
		var metadataJSON []byte
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Text, &vec, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		if err := json.Unmarshal(metadataJSON, &c.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
		c.Embedding = vec.Slice()
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document; its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM documents WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return int(n), nil
}

func scanDocument(row pgx.Row) (*domain.Document, error) {
	var doc domain.Document
	var kind string
	if err := row.Scan(&doc.ID, &doc.URL, &kind, &doc.ContentHash, &doc.UploadedBy,
		&doc.CreatedAt, &doc.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}
	doc.Kind = domain.ContentKind(kind)
	return &doc, nil
}
