// Package domain defines the core business entities for Aksara.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: An ingested regulatory source, unique by URL
//   - Chunk: A word window of a document section with its embedding
//   - SourceSpec: What a caller asks the ingestion pipeline to fetch
//   - RetrievedChunk: A transient, scored retrieval candidate
//   - Answer: A grounded answer with citations, or a refusal
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
