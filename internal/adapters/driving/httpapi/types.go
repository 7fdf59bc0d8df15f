package httpapi

import (
	"time"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// QueryRequest is the body of POST /v1/qa/query.
type QueryRequest struct {
	Question   string  `json:"question"`
	PermitType *string `json:"permit_type"`

	// Region defaults to domain.DefaultRegion when omitted. An empty string
	// disables the region filter.
	Region *string `json:"region"`

	UserID string `json:"user_id"`
}

// AnswerResponse is the wire shape of an answer.
type AnswerResponse struct {
	AnswerMD      string             `json:"answer_md"`
	Citations     []CitationResponse `json:"citations"`
	RetrievalMeta RetrievalMeta      `json:"retrieval_meta"`
	ModelMeta     ModelMeta          `json:"model_meta"`
	Refused       bool               `json:"refused"`
}

// CitationResponse is the wire shape of a citation.
type CitationResponse struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Section string `json:"section"`
	Snippet string `json:"snippet"`
}

// RetrievalMeta describes the evidence behind an answer.
type RetrievalMeta struct {
	ChunksConsidered  int     `json:"chunks_considered"`
	LatestVersionDate *string `json:"latest_version_date"`
}

// ModelMeta describes the generation call.
type ModelMeta struct {
	Model          string `json:"model"`
	PromptTokens   *int   `json:"prompt_tokens"`
	ResponseTokens *int   `json:"response_tokens"`
}

// NewAnswerResponse converts an answer to its wire shape.
func NewAnswerResponse(a *domain.Answer) AnswerResponse {
	out := AnswerResponse{
		AnswerMD:  a.Markdown,
		Citations: make([]CitationResponse, 0, len(a.Citations)),
		RetrievalMeta: RetrievalMeta{
			ChunksConsidered: a.Retrieval.ChunksConsidered,
		},
		ModelMeta: ModelMeta{
			Model:          a.Model.Model,
			PromptTokens:   a.Model.PromptTokens,
			ResponseTokens: a.Model.ResponseTokens,
		},
		Refused: a.Refused(),
	}
	for _, c := range a.Citations {
		out.Citations = append(out.Citations, CitationResponse(c))
	}
	if latest := a.Retrieval.LatestVersionDate; latest != "" {
		out.RetrievalMeta.LatestVersionDate = &latest
	}
	return out
}

// UpsertRequest is the body of POST /v1/ingest/upsert.
type UpsertRequest struct {
	Sources []SourceRequest `json:"sources"`
}

// SourceRequest is one source to ingest.
type SourceRequest struct {
	URL         string         `json:"url"`
	Kind        string         `json:"kind,omitempty"`
	PermitType  string         `json:"permit_type,omitempty"`
	Region      string         `json:"region,omitempty"`
	Title       string         `json:"title,omitempty"`
	VersionDate string         `json:"version_date,omitempty"`
	Selectors   map[string]any `json:"selectors,omitempty"`
}

// Spec converts the request to a source spec.
func (s SourceRequest) Spec(uploadedBy string) domain.SourceSpec {
	region := s.Region
	if region == "" {
		region = domain.DefaultRegion
	}
	return domain.SourceSpec{
		URL:         s.URL,
		Kind:        domain.ContentKind(s.Kind),
		PermitType:  s.PermitType,
		Region:      region,
		Title:       s.Title,
		VersionDate: s.VersionDate,
		Selectors:   s.Selectors,
		UploadedBy:  uploadedBy,
	}
}

// UpsertResponse lists one result per requested source, in order.
type UpsertResponse struct {
	Results []UpsertResult `json:"results"`
}

// UpsertResult is the outcome for one source.
type UpsertResult struct {
	URL         string `json:"url"`
	DocumentID  string `json:"document_id,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
	ContentHash string `json:"content_hash,omitempty"`
	Created     bool   `json:"created"`
	Error       string `json:"error,omitempty"`
}

// DocumentResponse is the wire shape of a document.
type DocumentResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url"`
	Kind        string    `json:"kind"`
	ContentHash string    `json:"content_hash"`
	UploadedBy  string    `json:"uploaded_by,omitempty"`
	ChunkCount  int       `json:"chunk_count"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func newDocumentResponse(d domain.Document, chunks int) DocumentResponse {
	return DocumentResponse{
		ID:          d.ID,
		URL:         d.URL,
		Kind:        d.Kind.String(),
		ContentHash: d.ContentHash,
		UploadedBy:  d.UploadedBy,
		ChunkCount:  chunks,
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// DocumentDetailsResponse adds chunk-derived metadata to a document.
type DocumentDetailsResponse struct {
	DocumentResponse
	Title       string   `json:"title,omitempty"`
	PermitType  string   `json:"permit_type,omitempty"`
	Region      string   `json:"region,omitempty"`
	VersionDate string   `json:"version_date,omitempty"`
	Sections    []string `json:"sections"`
}

func newDocumentDetailsResponse(d *driving.DocumentDetails) DocumentDetailsResponse {
	sections := d.Sections
	if sections == nil {
		sections = []string{}
	}
	return DocumentDetailsResponse{
		DocumentResponse: newDocumentResponse(d.Document, len(d.Chunks)),
		Title:            d.Title,
		PermitType:       d.PermitType,
		Region:           d.Region,
		VersionDate:      d.VersionDate,
		Sections:         sections,
	}
}

// HealthResponse is the body of GET /v1/health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Details map[string]string `json:"details"`
	Chunks  int               `json:"chunks"`
	Errors  map[string]string `json:"errors,omitempty"`
}
