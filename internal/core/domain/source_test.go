package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSourceSpec_ResolvedKind(t *testing.T) {
	assert.Equal(t, ContentKindPDF, SourceSpec{URL: "https://example.com/a.pdf"}.ResolvedKind())
	assert.Equal(t, ContentKindHTML, SourceSpec{URL: "https://example.com/a"}.ResolvedKind())
	assert.Equal(t, ContentKindPDF, SourceSpec{URL: "https://example.com/download?id=1", Kind: ContentKindPDF}.ResolvedKind())
	assert.Equal(t, ContentKindMarkdown, SourceSpec{URL: "https://example.com/a", Kind: ContentKindMarkdown}.ResolvedKind())
}

func TestSourceSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    SourceSpec
		wantErr error
	}{
		{"valid", SourceSpec{URL: "https://example.com/a", VersionDate: "2024-05-01"}, nil},
		{"missing url", SourceSpec{}, ErrInvalidInput},
		{"relative url", SourceSpec{URL: "/perda/12"}, ErrInvalidInput},
		{"ftp url", SourceSpec{URL: "ftp://example.com/a"}, ErrInvalidInput},
		{"unknown kind", SourceSpec{URL: "https://example.com/a", Kind: "docx"}, ErrUnsupportedType},
		{"bad version date", SourceSpec{URL: "https://example.com/a", VersionDate: "May 2024"}, ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}
