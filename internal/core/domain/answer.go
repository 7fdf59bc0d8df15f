package domain

// RefusalText is returned verbatim whenever an answer cannot be grounded.
const RefusalText = "Saya tidak dapat memverifikasi ini."

// SnippetMaxRunes bounds the citation snippet length.
const SnippetMaxRunes = 400

// DefaultCitationTitle labels citations whose source has no title.
const DefaultCitationTitle = "Sumber"

// GroundingState records how far an answer progressed before it was
// returned.
type GroundingState int

// Grounding states in pipeline order.
const (
	StateNoQuestion GroundingState = iota
	StateNoEvidence
	StateDraftedUngrounded
	StateGrounded
)

// String returns the string representation.
func (s GroundingState) String() string {
	switch s {
	case StateNoQuestion:
		return "no_question"
	case StateNoEvidence:
		return "no_evidence"
	case StateDraftedUngrounded:
		return "drafted_ungrounded"
	case StateGrounded:
		return "grounded"
	default:
		return "unknown"
	}
}

// Question is a natural-language question with optional retrieval filters.
type Question struct {
	Text    string
	Filters Filters
}

// Citation points at a source that supports an answer.
type Citation struct {
	URL     string
	Title   string
	Section string
	Snippet string
}

// RetrievalMeta describes the evidence behind an answer.
type RetrievalMeta struct {
	ChunksConsidered  int
	LatestVersionDate string
}

// ModelMeta describes the generation call behind an answer.
// Token counts are nil when the provider does not report them.
type ModelMeta struct {
	Model          string
	PromptTokens   *int
	ResponseTokens *int
}

// Answer is the result of the grounding synthesizer.
// A refusal is an Answer, not an error.
type Answer struct {
	Markdown  string
	Citations []Citation
	Retrieval RetrievalMeta
	Model     ModelMeta
	State     GroundingState
}

// Refused returns true if the answer is the fixed refusal.
func (a *Answer) Refused() bool {
	return a.State != StateGrounded
}

// NewRefusal returns the refusal answer for the given state.
func NewRefusal(state GroundingState) *Answer {
	return &Answer{
		Markdown:  RefusalText,
		Citations: []Citation{},
		State:     state,
	}
}
