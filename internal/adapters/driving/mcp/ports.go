package mcp

import (
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server calls into.
type Ports struct {
	// Answer produces cited answers or refusals.
	Answer driving.AnswerService

	// Retrieval returns ranked evidence.
	Retrieval driving.RetrievalService

	// Ingestion adds sources. Optional; the ingest tool fails without it.
	Ingestion driving.IngestionService

	// Documents backs the document resources. Optional.
	Documents driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
