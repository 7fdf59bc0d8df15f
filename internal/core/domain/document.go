package domain

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// ContentKind identifies how a source is normalised.
type ContentKind string

// Supported content kinds.
const (
	ContentKindHTML     ContentKind = "html"
	ContentKindPDF      ContentKind = "pdf"
	ContentKindMarkdown ContentKind = "markdown"
)

// IsValid returns true if the content kind is recognised.
func (k ContentKind) IsValid() bool {
	switch k {
	case ContentKindHTML, ContentKindPDF, ContentKindMarkdown:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k ContentKind) String() string {
	return string(k)
}

// ContentKindForURL picks a content kind from the URL path suffix.
// Anything that is not recognisably PDF or Markdown is treated as HTML.
func ContentKindForURL(rawURL string) ContentKind {
	p := rawURL
	if u, err := url.Parse(rawURL); err == nil {
		p = u.Path
	}
	switch strings.ToLower(path.Ext(p)) {
	case ".pdf":
		return ContentKindPDF
	case ".md", ".markdown":
		return ContentKindMarkdown
	default:
		return ContentKindHTML
	}
}

// Document represents one ingested source.
// There is at most one Document per URL; re-ingestion updates it in place.
type Document struct {
	// ID is the unique identifier for the document.
	ID string

	// URL is the stable source location and the natural key.
	URL string

	// Kind is the content kind used for the last successful ingestion.
	Kind ContentKind

	// ContentHash is the SHA-256 hex digest of the normalised text.
	ContentHash string

	// UploadedBy identifies who ingested the document. Optional.
	UploadedBy string

	// CreatedAt is when the document was first ingested.
	CreatedAt time.Time

	// UpdatedAt is when the document was last re-ingested.
	UpdatedAt time.Time
}

// DocumentInfo is a document together with its current chunk count.
type DocumentInfo struct {
	Document
	ChunkCount int
}

// Chunk represents a searchable word window within a document section.
// A chunk never exists without its document.
type Chunk struct {
	// ID is the unique identifier for the chunk.
	ID string

	// DocumentID links to the parent Document.
	DocumentID string

	// Text is the raw text of the window.
	Text string

	// Metadata carries provenance used for filtering and citations.
	Metadata ChunkMetadata

	// Embedding is the vector representation for semantic search.
	Embedding []float32
}

// Section is a headed block of normalised text.
type Section struct {
	Heading string
	Text    string
}

// DefaultSectionHeading labels the fallback section used when a source
// yields text but no sections.
const DefaultSectionHeading = "Umum"
