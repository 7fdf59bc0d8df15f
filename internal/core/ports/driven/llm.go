// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import "context"

// LLMService provides generation and reranking.
// All output is treated as untrusted by the core.
//
// Implementations include:
//   - Gemini (gemini-2.5-pro)
//   - OpenAI (GPT-4o)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces a completion for a system prompt and conversation.
	Generate(ctx context.Context, req GenerateRequest) (*Generation, error)

	// Rerank returns a permutation of candidate indices, most relevant first.
	// The result may be malformed; callers validate it.
	Rerank(ctx context.Context, query string, candidates []string) ([]int, error)

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// GenerateRequest is a single generation call.
type GenerateRequest struct {
	// System is the system instruction.
	System string

	// Messages is the conversation, oldest first.
	Messages []ChatMessage

	// MaxTokens is the maximum number of tokens to generate. Zero uses the provider default.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks the provider for a JSON object response where supported.
	JSON bool
}

// Generation is the provider's answer to a GenerateRequest.
type Generation struct {
	Text  string
	Model string

	// Token counts are nil when the provider does not report them.
	PromptTokens   *int
	ResponseTokens *int
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "user" or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
