package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkMetadata_Title(t *testing.T) {
	m := ChunkMetadata{SourceURL: "https://example.com/a"}
	assert.Equal(t, "https://example.com/a", m.Title())

	m.SourceTitle = "Perbup 12/2021"
	assert.Equal(t, "Perbup 12/2021", m.Title())
}

func TestChunkMetadata_JSONIsFlat(t *testing.T) {
	m := ChunkMetadata{
		SourceURL:  "https://example.com/a",
		Section:    "Pasal 1",
		Order:      2,
		PermitType: "PIRT",
		IngestedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
		Extra:      map[string]any{"jurisdiction": "Sleman"},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "Sleman", flat["jurisdiction"])
	assert.Equal(t, "Pasal 1", flat["section"])
	assert.NotContains(t, flat, "Extra")
}

func TestChunkMetadata_ExtraDoesNotShadowTypedFields(t *testing.T) {
	m := ChunkMetadata{
		SourceURL: "https://example.com/a",
		Extra:     map[string]any{"source_url": "https://evil.example.com"},
	}

	data, err := json.Marshal(m)
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal(data, &flat))
	assert.Equal(t, "https://example.com/a", flat["source_url"])
}

func TestChunkMetadata_UnmarshalCollectsUnknownKeys(t *testing.T) {
	raw := `{"source_url":"https://example.com/a","section":"Bab I","order":3,"fee":"free"}`

	var m ChunkMetadata
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	assert.Equal(t, "https://example.com/a", m.SourceURL)
	assert.Equal(t, "Bab I", m.Section)
	assert.Equal(t, 3, m.Order)
	assert.Equal(t, map[string]any{"fee": "free"}, m.Extra)
}

func TestChunkMetadata_UnmarshalWithoutExtra(t *testing.T) {
	var m ChunkMetadata
	require.NoError(t, json.Unmarshal([]byte(`{"source_url":"u","section":"s","order":0}`), &m))
	assert.Nil(t, m.Extra)
}
