package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// Unknown names return an error.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptQASystem is the system instruction for grounded answers.
	PromptQASystem = "qa_system"

	// PromptRerankSystem is the system instruction for passage reranking.
	PromptRerankSystem = "rerank_system"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
// If no store is injected, services fall back to their built-in defaults.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	SetPromptStore(store PromptStore)
}
