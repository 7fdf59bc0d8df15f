// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Fetcher: Retrieves raw sources over the network
//   - NormaliserRegistry: Selects the normaliser for a content kind
//   - Chunker: Splits section text into word windows
//   - Store: Document and chunk persistence with filtered search
//   - EmbeddingService: Generates vector embeddings
//   - LLMService: Generation and passage reranking
//   - PromptStore: System prompt templates
//   - ConfigStore: Application configuration
//
// Stores that cannot rank by vector distance report it through
// SupportsSimilaritySearch; retrieval then runs lexically only.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or normaliser package
package driven
