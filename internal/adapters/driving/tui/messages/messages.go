// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/aksara-legal/aksara/internal/core/domain"
)

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewMenu is the main navigation menu.
	ViewMenu ViewType = iota
	// ViewAsk is the grounded question view.
	ViewAsk
	// ViewSearch shows ranked evidence for a query.
	ViewSearch
	// ViewDocuments lists ingested documents.
	ViewDocuments
	// ViewHelp is the help/keybindings view.
	ViewHelp
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewMenu:
		return "menu"
	case ViewAsk:
		return "ask"
	case ViewSearch:
		return "search"
	case ViewDocuments:
		return "documents"
	case ViewHelp:
		return "help"
	default:
		return "unknown"
	}
}

// AnswerReceived carries an answer or a generation failure.
type AnswerReceived struct {
	Question string
	Answer   *domain.Answer
	Err      error
}

// SearchCompleted carries retrieval results back to the model.
type SearchCompleted struct {
	Query   string
	Results []domain.RetrievedChunk
	Err     error
}

// DocumentsLoaded carries the document list.
type DocumentsLoaded struct {
	Documents []domain.DocumentInfo
	Err       error
}

// DocumentDeleted signals a document was removed.
type DocumentDeleted struct {
	DocumentID string
	Err        error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
