package domain

// Filters restricts retrieval to chunks carrying the given tags.
// Empty fields do not filter.
type Filters struct {
	PermitType string
	Region     string
}

// IsEmpty returns true if no filter is set.
func (f Filters) IsEmpty() bool {
	return f.PermitType == "" && f.Region == ""
}

// Matches reports whether chunk metadata satisfies the filters.
func (f Filters) Matches(m ChunkMetadata) bool {
	if f.PermitType != "" && m.PermitType != f.PermitType {
		return false
	}
	if f.Region != "" && m.Region != f.Region {
		return false
	}
	return true
}

// Base scores assigned by each retrieval branch before fusion.
const (
	SemanticBaseScore = 0.5
	LexicalBaseScore  = 0.3
)

// RetrievedChunk is a scored retrieval candidate. It is never persisted.
type RetrievedChunk struct {
	ChunkID    string
	DocumentID string
	Text       string
	Metadata   ChunkMetadata
	Score      float64
}

// FusionKey identifies the same chunk across retrieval branches.
type FusionKey struct {
	SourceURL string
	Section   string
	Order     int
}

// Key returns the fusion key of the chunk.
func (r RetrievedChunk) Key() FusionKey {
	return FusionKey{
		SourceURL: r.Metadata.SourceURL,
		Section:   r.Metadata.Section,
		Order:     r.Metadata.Order,
	}
}
