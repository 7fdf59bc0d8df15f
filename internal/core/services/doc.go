// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Provider output (embeddings, generations, rerank orders) is untrusted:
// services validate it before it reaches the store or the caller.
package services
