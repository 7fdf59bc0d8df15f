package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/aksara-legal/aksara/internal/adapters/driven/storage/vecmath"
	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.Store = (*Store)(nil)

// Store is a SQLite-backed document and chunk store.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.aksara/data/aksara.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".aksara", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "aksara.db")

	// WAL for concurrent readers; foreign keys must be enabled per connection.
	db, err := sql.Open("sqlite", dbPath+
		"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
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
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Transactions ====================

// WithTx runs fn in a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx driven.StoreTx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	if err := fn(&storeTx{tx: sqlTx}); err != nil {
		if rbErr := sqlTx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// storeTx implements driven.StoreTx on a *sql.Tx.
type storeTx struct {
	tx *sql.Tx
}

var _ driven.StoreTx = (*storeTx)(nil)

func (t *storeTx) GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error) {
	return scanDocument(t.tx.QueryRowContext(ctx, selectDocument+" WHERE url = ?", url))
}

func (t *storeTx) CreateDocument(ctx context.Context, doc *domain.Document) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO documents (id, url, kind, content_hash, uploaded_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, doc.ID, doc.URL, string(doc.Kind), doc.ContentHash, doc.UploadedBy,
		doc.CreatedAt.UTC(), doc.UpdatedAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting document: %w", err)
	}
	return nil
}

func (t *storeTx) UpdateDocument(ctx context.Context, doc *domain.Document) error {
	result, err := t.tx.ExecContext(ctx, `
		UPDATE documents
		SET kind = ?, content_hash = ?, uploaded_by = ?, updated_at = ?
		WHERE id = ?
	`, string(doc.Kind), doc.ContentHash, doc.UploadedBy, doc.UpdatedAt.UTC(), doc.ID)
	if err != nil {
		return fmt.Errorf("updating document: %w", err)
	}
	return requireAffected(result)
}

func (t *storeTx) DeleteChunks(ctx context.Context, documentID string) error {
	if _, err := t.tx.ExecContext(ctx, "DELETE FROM chunks WHERE document_id = ?", documentID); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

func (t *storeTx) SaveChunks(ctx context.Context, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO chunks (id, document_id, seq, text, text_lower, section, position, permit_type, region, embedding, metadata)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("preparing chunk insert: %w", err)
	}
	defer stmt.Close()

	next := make(map[string]int)
	for _, chunk := range chunks {
		seq, ok := next[chunk.DocumentID]
		if !ok {
			row := t.tx.QueryRowContext(ctx,
				"SELECT COALESCE(MAX(seq), -1) + 1 FROM chunks WHERE document_id = ?", chunk.DocumentID)
			if err := row.Scan(&seq); err != nil {
				return fmt.Errorf("reading chunk sequence: %w", err)
			}
		}
		next[chunk.DocumentID] = seq + 1

		metadataJSON, err := json.Marshal(chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling chunk metadata: %w", err)
		}

		m := chunk.Metadata
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, seq, chunk.Text,
			strings.ToLower(chunk.Text), m.Section, m.Order, m.PermitType, m.Region,
			float32SliceToBytes(chunk.Embedding), string(metadataJSON)); err != nil {
			return fmt.Errorf("inserting chunk %s: %w", chunk.ID, err)
		}
	}
	return nil
}

// ==================== Search ====================

// SupportsSimilaritySearch reports true; vectors are ranked in process.
func (s *Store) SupportsSimilaritySearch() bool {
	return true
}

// filterClause restricts chunk rows; empty filter values match everything.
const filterClause = "(? = '' OR permit_type = ?) AND (? = '' OR region = ?)"

func filterArgs(f domain.Filters) []any {
	return []any{f.PermitType, f.PermitType, f.Region, f.Region}
}

// SimilaritySearch loads filtered embeddings and ranks them by cosine distance.
func (s *Store) SimilaritySearch(
	ctx context.Context, vector []float32, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, document_id, text, embedding, metadata FROM chunks WHERE "+filterClause+" ORDER BY rowid",
		filterArgs(filters)...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		candidates = append(candidates, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	embeddings := make([][]float32, len(candidates))
	for i, c := range candidates {
		embeddings[i] = c.Embedding
	}

	var results []domain.RetrievedChunk //nolint:prealloc // bounded by limit
	for _, i := range vecmath.Nearest(vector, embeddings, limit) {
		results = append(results, retrieved(candidates[i]))
	}
	return results, nil
}

// LexicalSearch matches a case-insensitive substring, shortest text first.
// Both sides are folded with strings.ToLower; SQLite's lower() is ASCII only.
func (s *Store) LexicalSearch(
	ctx context.Context, query string, filters domain.Filters, limit int,
) ([]domain.RetrievedChunk, error) {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" || limit <= 0 {
		return nil, nil
	}

	args := append([]any{needle}, filterArgs(filters)...)
	args = append(args, limit)
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, text, NULL, metadata FROM chunks
		WHERE instr(text_lower, ?) > 0 AND `+filterClause+`
		ORDER BY length(text), rowid
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.RetrievedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, retrieved(*chunk))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return results, nil
}

func retrieved(c domain.Chunk) domain.RetrievedChunk {
	return domain.RetrievedChunk{
		ChunkID:    c.ID,
		DocumentID: c.DocumentID,
		Text:       c.Text,
		Metadata:   c.Metadata,
	}
}

// ==================== Documents ====================

const selectDocument = `SELECT id, url, kind, content_hash, uploaded_by, created_at, updated_at FROM documents`

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, selectDocument+" WHERE id = ?", id))
}

// GetDocumentByURL retrieves a document by URL.
func (s *Store) GetDocumentByURL(ctx context.Context, url string) (*domain.Document, error) {
	return scanDocument(s.db.QueryRowContext(ctx, selectDocument+" WHERE url = ?", url))
}

// ListDocuments returns all documents with chunk counts, newest first.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
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
		if err := rows.Scan(&info.ID, &info.URL, &kind, &info.ContentHash, &info.UploadedBy,
			&info.CreatedAt, &info.UpdatedAt, &info.ChunkCount); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		info.Kind = domain.ContentKind(kind)
		docs = append(docs, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating documents: %w", err)
	}
	return docs, nil
}

// GetChunks retrieves all chunks for a document in insertion order.
func (s *Store) GetChunks(ctx context.Context, documentID string) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, text, embedding, metadata FROM chunks
		WHERE document_id = ?
		ORDER BY seq
	`, documentID)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// DeleteDocument removes a document; its chunks cascade.
func (s *Store) DeleteDocument(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting document: %w", err)
	}
	return requireAffected(result)
}

// CountChunks returns the total number of stored chunks.
func (s *Store) CountChunks(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting chunks: %w", err)
	}
	return n, nil
}

// ==================== Helper Functions ====================

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanDocument scans a single document row.
func scanDocument(row *sql.Row) (*domain.Document, error) {
	var doc domain.Document
	var kind string
	var createdAt, updatedAt time.Time

	if err := row.Scan(&doc.ID, &doc.URL, &kind, &doc.ContentHash, &doc.UploadedBy,
		&createdAt, &updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	doc.Kind = domain.ContentKind(kind)
	doc.CreatedAt = createdAt
	doc.UpdatedAt = updatedAt
	return &doc, nil
}

// scanChunk scans a chunk from *sql.Rows. Section and order come from the
// stored metadata.
func scanChunk(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var embeddingBlob []byte
	var metadataJSON string

	if err := rows.Scan(&chunk.ID, &chunk.DocumentID, &chunk.Text,
		&embeddingBlob, &metadataJSON); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

	if metadataJSON != "" {
		if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling chunk metadata: %w", err)
		}
	}

	return &chunk, nil
}
