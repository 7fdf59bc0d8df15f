package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

const uriScheme = "aksara://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "documents",
		Name:        "documents",
		Description: "Ingested regulatory documents with chunk counts",
		MIMEType:    "application/json",
	}, s.handleDocumentsResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "documents/{documentId}",
		Name:        "document",
		Description: "Metadata and chunks of one document, by ID or escaped source URL",
		MIMEType:    "application/json",
	}, s.handleDocumentResource)
}

type documentInfo struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Kind       string    `json:"kind"`
	Chunks     int       `json:"chunks"`
	UploadedBy string    `json:"uploaded_by,omitempty"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type chunkInfo struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Order   int    `json:"order"`
	Text    string `json:"text"`
}

type documentDetails struct {
	documentInfo
	Title       string      `json:"title,omitempty"`
	PermitType  string      `json:"permit_type,omitempty"`
	Region      string      `json:"region,omitempty"`
	VersionDate string      `json:"version_date,omitempty"`
	Sections    []string    `json:"sections"`
	Content     []chunkInfo `json:"content"`
}

// handleDocumentsResource lists every ingested document.
func (s *Server) handleDocumentsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return jsonResult(req.Params.URI, []documentInfo{})
	}

	docs, err := s.ports.Documents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	infos := make([]documentInfo, len(docs))
	for i := range docs {
		infos[i] = toDocumentInfo(docs[i].Document, docs[i].ChunkCount)
	}
	return jsonResult(req.Params.URI, infos)
}

// handleDocumentResource returns one document with its chunks.
func (s *Server) handleDocumentResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	if s.ports.Documents == nil {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	docID := extractDocumentID(req.Params.URI)
	if docID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	details, err := s.ports.Documents.GetDetails(ctx, docID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting document: %w", err)
	}

	out := documentDetails{
		documentInfo: toDocumentInfo(details.Document, len(details.Chunks)),
		Title:        details.Title,
		PermitType:   details.PermitType,
		Region:       details.Region,
		VersionDate:  details.VersionDate,
		Sections:     details.Sections,
		Content:      make([]chunkInfo, len(details.Chunks)),
	}
	for i := range details.Chunks {
		c := &details.Chunks[i]
		out.Content[i] = chunkInfo{
			ID:      c.ID,
			Section: c.Metadata.Section,
			Order:   c.Metadata.Order,
			Text:    c.Text,
		}
	}
	return jsonResult(req.Params.URI, out)
}

func toDocumentInfo(d domain.Document, chunks int) documentInfo {
	return documentInfo{
		ID:         d.ID,
		URL:        d.URL,
		Kind:       d.Kind.String(),
		Chunks:     chunks,
		UploadedBy: d.UploadedBy,
		UpdatedAt:  d.UpdatedAt,
	}
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractDocumentID extracts the document key from a URI like
// aksara://documents/{documentId}. Escaped source URLs are unescaped.
func extractDocumentID(uri string) string {
	const prefix = uriScheme + "documents/"

	if !strings.HasPrefix(uri, prefix) {
		return ""
	}

	id := strings.TrimPrefix(uri, prefix)
	if unescaped, err := url.PathUnescape(id); err == nil {
		id = unescaped
	}
	return id
}
