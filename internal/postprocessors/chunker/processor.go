// Package chunker provides a fixed-size word-window chunker.
package chunker

import (
	"iter"
	"strings"

	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Processor implements the interface.
var _ driven.Chunker = (*Processor)(nil)

// DefaultWindowSize is the default number of words per chunk.
const DefaultWindowSize = 700

// DefaultOverlap is the default number of words shared by consecutive chunks.
const DefaultOverlap = 120

// Processor splits section text into overlapping word windows.
// It is stateless and safe for concurrent use.
type Processor struct {
	windowSize int
	overlap    int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithWindowSize sets the window size in words.
func WithWindowSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.windowSize = size
		}
	}
}

// WithOverlap sets the overlap between windows in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		windowSize: DefaultWindowSize,
		overlap:    DefaultOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Every window must advance by at least one word.
	if p.overlap >= p.windowSize {
		p.overlap = p.windowSize - 1
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// WindowSize returns the effective window size.
func (p *Processor) WindowSize() int {
	return p.windowSize
}

// Overlap returns the effective overlap.
func (p *Processor) Overlap() int {
	return p.overlap
}

// Chunks yields the word windows of text tagged with section.
// Each window after the first starts overlap words before the previous
// window's end. The last window ends at the last word.
func (p *Processor) Chunks(text, section string) iter.Seq[driven.ChunkWindow] {
	return func(yield func(driven.ChunkWindow) bool) {
		words := strings.Fields(text)
		n := len(words)

		order := 0
		for start := 0; start < n; {
			end := min(start+p.windowSize, n)
			window := strings.Join(words[start:end], " ")
			if window != "" {
				if !yield(driven.ChunkWindow{Text: window, Section: section, Order: order}) {
					return
				}
				order++
			}
			if end == n {
				return
			}
			start = end - p.overlap
		}
	}
}
