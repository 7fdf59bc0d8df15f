package domain

import (
	"fmt"
	"net/url"
	"time"
)

// SourceSpec describes one source a caller wants ingested.
type SourceSpec struct {
	// URL is the source location. Required.
	URL string

	// Kind forces a content kind. When empty it is derived from the URL.
	Kind ContentKind

	// PermitType tags every chunk for filtered retrieval.
	PermitType string

	// Region tags every chunk for filtered retrieval.
	Region string

	// Title overrides the title extracted from the source.
	Title string

	// VersionDate is the ISO date of the regulation version.
	VersionDate string

	// Selectors are opaque hints stored alongside each chunk.
	Selectors map[string]any

	// UploadedBy identifies the caller. Optional.
	UploadedBy string
}

// ResolvedKind returns the declared kind or the kind implied by the URL.
func (s SourceSpec) ResolvedKind() ContentKind {
	if s.Kind != "" {
		return s.Kind
	}
	return ContentKindForURL(s.URL)
}

// Validate checks the source before any network call is made.
func (s SourceSpec) Validate() error {
	if s.URL == "" {
		return fmt.Errorf("%w: source url is required", ErrInvalidInput)
	}
	u, err := url.Parse(s.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: source url %q must be an absolute http(s) url", ErrInvalidInput, s.URL)
	}
	if s.Kind != "" && !s.Kind.IsValid() {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, s.Kind)
	}
	if s.VersionDate != "" {
		if _, err := time.Parse(time.DateOnly, s.VersionDate); err != nil {
			return fmt.Errorf("%w: version date %q is not YYYY-MM-DD", ErrInvalidInput, s.VersionDate)
		}
	}
	return nil
}

// RawSource is the fetched, unparsed body of a source.
type RawSource struct {
	// URL is the location the body was fetched from.
	URL string

	// Kind is the content kind the body will be normalised as.
	Kind ContentKind

	// ContentType is the MIME type reported by the server, if any.
	ContentType string

	// Content is the raw body.
	Content []byte

	// FetchedAt is when the body was retrieved.
	FetchedAt time.Time
}

// NormalisedSource is a source reduced to plain text and ordered sections.
type NormalisedSource struct {
	Text     string
	Sections []Section
	Title    string
}

// IngestResult reports the outcome of ingesting one source.
type IngestResult struct {
	URL         string
	DocumentID  string
	ChunkCount  int
	ContentHash string
	Created     bool

	// Err is set when this source failed; other sources in a batch are unaffected.
	Err error
}
