package normalisers

import (
	"github.com/aksara-legal/aksara/internal/normalisers/html"
	"github.com/aksara-legal/aksara/internal/normalisers/markdown"
	"github.com/aksara-legal/aksara/internal/normalisers/pdf"
)

// RegisterDefaults registers the built-in HTML, PDF and Markdown normalisers.
func RegisterDefaults(r *Registry) {
	r.Register(html.New())
	r.Register(pdf.New())
	r.Register(markdown.New())
}

// NewDefaultRegistry returns a registry with all built-in normalisers.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	RegisterDefaults(r)
	return r
}
