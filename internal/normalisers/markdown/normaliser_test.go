package markdown

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

const guide = "# Panduan PIRT\n\n" +
	"Dokumen ini merangkum persyaratan.\n\n" +
	"## Persyaratan\n\n" +
	"- Fotokopi **KTP** pemilik\n" +
	"- Surat keterangan [domisili](https://example.com/domisili)\n\n" +
	"## Biaya\n\n" +
	"Pendaftaran tidak dipungut biaya.\n" +
	"Lanjutan baris yang sama.\n\n" +
	"![logo](logo.png)\n\n" +
	"```\nkode contoh\n```\n"

func normalise(t *testing.T, content string) *domain.NormalisedSource {
	t.Helper()
	raw := &domain.RawSource{URL: "https://example.com/panduan.md", Content: []byte(content)}
	result, err := New().Normalise(context.Background(), raw)
	require.NoError(t, err)
	return result
}

func TestNew(t *testing.T) {
	normaliser := New()
	require.NotNil(t, normaliser)
	assert.Equal(t, domain.ContentKindMarkdown, normaliser.Kind())
}

func TestNormalise_Title(t *testing.T) {
	assert.Equal(t, "Panduan PIRT", normalise(t, guide).Title)
	assert.Empty(t, normalise(t, "## Hanya H2\n\nisi").Title)
}

func TestNormalise_Sections(t *testing.T) {
	result := normalise(t, guide)

	require.Len(t, result.Sections, 3)
	assert.Equal(t, domain.Section{Heading: "Panduan PIRT", Text: "Dokumen ini merangkum persyaratan."}, result.Sections[0])
	assert.Equal(t, domain.Section{
		Heading: "Persyaratan",
		Text:    "Fotokopi KTP pemilik\nSurat keterangan domisili",
	}, result.Sections[1])
	assert.Equal(t, "Biaya", result.Sections[2].Heading)
	assert.Equal(t, "Pendaftaran tidak dipungut biaya. Lanjutan baris yang sama.\nkode contoh", result.Sections[2].Text)
}

func TestNormalise_TextIncludesHeadings(t *testing.T) {
	result := normalise(t, guide)

	assert.Contains(t, result.Text, "Panduan PIRT\nDokumen ini merangkum persyaratan.")
	assert.NotContains(t, result.Text, "**")
	assert.NotContains(t, result.Text, "logo")
}

func TestNormalise_TextBeforeHeading(t *testing.T) {
	result := normalise(t, "Pembukaan.\n\n## Pasal 1\n\nIsi.")

	require.Len(t, result.Sections, 2)
	assert.Equal(t, domain.DefaultSectionHeading, result.Sections[0].Heading)
}

func TestNormalise_Table(t *testing.T) {
	result := normalise(t, "| Izin | Biaya |\n|---|---|\n| PIRT | Gratis |\n")

	assert.Contains(t, result.Text, "PIRT")
	assert.Contains(t, result.Text, "Gratis")
}

func TestNormalise_Empty(t *testing.T) {
	raw := &domain.RawSource{URL: "https://example.com/kosong.md", Content: []byte("\n\n---\n")}

	_, err := New().Normalise(context.Background(), raw)
	assert.ErrorIs(t, err, domain.ErrExtraction)
}

func TestNormalise_NilSource(t *testing.T) {
	_, err := New().Normalise(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
