package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentKind_IsValid(t *testing.T) {
	assert.True(t, ContentKindHTML.IsValid())
	assert.True(t, ContentKindPDF.IsValid())
	assert.True(t, ContentKindMarkdown.IsValid())
	assert.False(t, ContentKind("docx").IsValid())
	assert.False(t, ContentKind("").IsValid())
}

func TestContentKindForURL(t *testing.T) {
	tests := []struct {
		url  string
		want ContentKind
	}{
		{"https://jdih.example.go.id/perda/2021/12.pdf", ContentKindPDF},
		{"https://jdih.example.go.id/perda/2021/12.PDF", ContentKindPDF},
		{"https://example.com/file.pdf?download=1", ContentKindPDF},
		{"https://example.com/guide.md", ContentKindMarkdown},
		{"https://example.com/guide.markdown", ContentKindMarkdown},
		{"https://example.com/regulation", ContentKindHTML},
		{"https://example.com/regulation.html", ContentKindHTML},
		{"https://example.com/pdf/index", ContentKindHTML},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, ContentKindForURL(tt.url))
		})
	}
}
