package driven

import "iter"

// Chunker splits section text into ordered word windows.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunks lazily yields the windows of text. The sequence is finite and
	// may be ranged over more than once.
	Chunks(text, section string) iter.Seq[ChunkWindow]
}

// ChunkWindow is one window produced by a Chunker.
type ChunkWindow struct {
	Text    string
	Section string

	// Order is zero-based within the section.
	Order int
}
