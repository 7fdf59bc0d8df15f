// Package tui provides an interactive terminal user interface for aksara.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/aksara-legal/aksara/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces used by the TUI.
type Ports struct {
	// Answer produces grounded answers. Required.
	Answer driving.AnswerService

	// Retrieval ranks evidence for a query. Required.
	Retrieval driving.RetrievalService

	// Documents lists and deletes stored sources. Optional; the documents
	// view reports an error when it is nil.
	Documents driving.DocumentService
}

// Validate ensures the required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
