package domain

import (
	"encoding/json"
	"time"
)

// ChunkMetadata holds the well-known chunk fields plus an open extension map.
// It serialises as a single flat JSON object; Extra keys never shadow
// the typed fields.
type ChunkMetadata struct {
	SourceURL   string         `json:"source_url"`
	SourceTitle string         `json:"source_title,omitempty"`
	Section     string         `json:"section"`
	Order       int            `json:"order"`
	PermitType  string         `json:"permit_type,omitempty"`
	Region      string         `json:"region,omitempty"`
	Language    string         `json:"language,omitempty"`
	VersionDate string         `json:"version_date,omitempty"`
	Selectors   map[string]any `json:"selectors,omitempty"`
	IngestedAt  time.Time      `json:"ingested_at"`

	// Extra holds keys without a typed field.
	Extra map[string]any `json:"-"`
}

// DefaultLanguage is the language tag attached to ingested chunks.
const DefaultLanguage = "id"

var knownMetadataKeys = []string{
	"source_url", "source_title", "section", "order", "permit_type",
	"region", "language", "version_date", "selectors", "ingested_at",
}

// Title returns the source title, falling back to the source URL.
func (m ChunkMetadata) Title() string {
	if m.SourceTitle != "" {
		return m.SourceTitle
	}
	return m.SourceURL
}

// MarshalJSON flattens Extra into the typed fields.
func (m ChunkMetadata) MarshalJSON() ([]byte, error) {
	type typed ChunkMetadata
	base, err := json.Marshal(typed(m))
	if err != nil {
		return nil, err
	}
	if len(m.Extra) == 0 {
		return base, nil
	}

	var fields map[string]any
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	merged := make(map[string]any, len(m.Extra)+len(fields))
	for k, v := range m.Extra {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return json.Marshal(merged)
}

// UnmarshalJSON fills the typed fields and collects unknown keys into Extra.
func (m *ChunkMetadata) UnmarshalJSON(data []byte) error {
	type typed ChunkMetadata
	var t typed
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, k := range knownMetadataKeys {
		delete(all, k)
	}

	*m = ChunkMetadata(t)
	if len(all) > 0 {
		m.Extra = all
	}
	return nil
}
