package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// mcpUploader is recorded as the uploader of sources ingested over MCP.
const mcpUploader = "mcp"

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question   string  `json:"question" jsonschema:"the question about business permits"`
	PermitType string  `json:"permit_type,omitempty" jsonschema:"restrict evidence to PIRT, HALAL or BPOM"`
	Region     *string `json:"region,omitempty" jsonschema:"restrict evidence to a region (default DIY, empty string for all)"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer            string           `json:"answer_md"`
	Citations         []CitationOutput `json:"citations"`
	Refused           bool             `json:"refused"`
	ChunksConsidered  int              `json:"chunks_considered"`
	LatestVersionDate string           `json:"latest_version_date,omitempty"`
	Model             string           `json:"model,omitempty"`
}

// CitationOutput is one cited source.
type CitationOutput struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Section string `json:"section,omitempty"`
	Snippet string `json:"snippet"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string  `json:"query" jsonschema:"the search query"`
	PermitType string  `json:"permit_type,omitempty" jsonschema:"restrict results to PIRT, HALAL or BPOM"`
	Region     *string `json:"region,omitempty" jsonschema:"restrict results to a region (default DIY, empty string for all)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single retrieved chunk.
type SearchResultOutput struct {
	ChunkID     string  `json:"chunk_id"`
	DocumentID  string  `json:"document_id"`
	Title       string  `json:"title"`
	URL         string  `json:"url"`
	Section     string  `json:"section"`
	VersionDate string  `json:"version_date,omitempty"`
	Score       float64 `json:"score"`
	Content     string  `json:"content"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Sources []IngestSource `json:"sources" jsonschema:"the sources to fetch and index"`
}

// IngestSource describes one source to ingest.
type IngestSource struct {
	URL         string `json:"url" jsonschema:"absolute http(s) URL of the source"`
	Kind        string `json:"kind,omitempty" jsonschema:"html, pdf or markdown; derived from the URL when empty"`
	PermitType  string `json:"permit_type,omitempty" jsonschema:"permit type tag"`
	Region      string `json:"region,omitempty" jsonschema:"region tag (default DIY)"`
	Title       string `json:"title,omitempty" jsonschema:"title override"`
	VersionDate string `json:"version_date,omitempty" jsonschema:"regulation version date, YYYY-MM-DD"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	Results []IngestResultOutput `json:"results"`
	Failed  int                  `json:"failed"`
}

// IngestResultOutput reports one source.
type IngestResultOutput struct {
	URL        string `json:"url"`
	DocumentID string `json:"document_id,omitempty"`
	Chunks     int    `json:"chunks"`
	Created    bool   `json:"created"`
	Error      string `json:"error,omitempty"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question about Indonesian business permits with citations, or refuse when no source supports an answer",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search ingested regulations and return ranked passages",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ingest",
		Description: "Fetch regulatory sources and index them for answering",
	}, s.handleIngest)
}

// filters builds retrieval filters. A nil region means the default region.
func filters(permitType string, region *string) domain.Filters {
	f := domain.Filters{PermitType: permitType, Region: domain.DefaultRegion}
	if region != nil {
		f.Region = *region
	}
	return f
}

func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Answer.Answer(ctx, domain.Question{
		Text:    input.Question,
		Filters: filters(input.PermitType, input.Region),
	})
	if err != nil {
		return nil, AskOutput{}, fmt.Errorf("answering: %w", err)
	}

	output := AskOutput{
		Answer:            answer.Markdown,
		Citations:         make([]CitationOutput, len(answer.Citations)),
		Refused:           answer.Refused(),
		ChunksConsidered:  answer.Retrieval.ChunksConsidered,
		LatestVersionDate: answer.Retrieval.LatestVersionDate,
		Model:             answer.Model.Model,
	}
	for i, c := range answer.Citations {
		output.Citations[i] = CitationOutput{
			URL:     c.URL,
			Title:   c.Title,
			Section: c.Section,
			Snippet: c.Snippet,
		}
	}
	return nil, output, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	results, err := s.ports.Retrieval.Search(ctx, input.Query, filters(input.PermitType, input.Region))
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		r := &results[i]
		output.Results[i] = SearchResultOutput{
			ChunkID:     r.ChunkID,
			DocumentID:  r.DocumentID,
			Title:       r.Metadata.Title(),
			URL:         r.Metadata.SourceURL,
			Section:     r.Metadata.Section,
			VersionDate: r.Metadata.VersionDate,
			Score:       r.Score,
			Content:     r.Text,
		}
	}
	return nil, output, nil
}

func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	if s.ports.Ingestion == nil {
		return nil, IngestOutput{}, errors.New("ingestion is not available")
	}
	if len(input.Sources) == 0 {
		return nil, IngestOutput{}, fmt.Errorf("%w: at least one source is required", domain.ErrInvalidInput)
	}

	specs := make([]domain.SourceSpec, len(input.Sources))
	for i, src := range input.Sources {
		region := src.Region
		if region == "" {
			region = domain.DefaultRegion
		}
		specs[i] = domain.SourceSpec{
			URL:         src.URL,
			Kind:        domain.ContentKind(src.Kind),
			PermitType:  src.PermitType,
			Region:      region,
			Title:       src.Title,
			VersionDate: src.VersionDate,
			UploadedBy:  mcpUploader,
		}
	}

	results := s.ports.Ingestion.UpsertBatch(ctx, specs)
	output := IngestOutput{Results: make([]IngestResultOutput, len(results))}
	for i, r := range results {
		output.Results[i] = IngestResultOutput{
			URL:        r.URL,
			DocumentID: r.DocumentID,
			Chunks:     r.ChunkCount,
			Created:    r.Created,
		}
		if r.Err != nil {
			output.Results[i].Error = r.Err.Error()
			output.Failed++
		}
	}
	return nil, output, nil
}
