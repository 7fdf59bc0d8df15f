// Package mcp provides an MCP (Model Context Protocol) server adapter for aksara.
// It lets AI assistants ask grounded questions, search the regulatory corpus
// and ingest new sources.
package mcp

import "errors"

// ErrMissingAnswerService is returned when the answer service is not provided.
var ErrMissingAnswerService = errors.New("mcp: answer service is required")

// ErrMissingRetrievalService is returned when the retrieval service is not provided.
var ErrMissingRetrievalService = errors.New("mcp: retrieval service is required")
