package normalisers

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/aksara-legal/aksara/internal/core/domain"
	"github.com/aksara-legal/aksara/internal/core/ports/driven"
)

// Ensure Registry implements the interface.
var _ driven.NormaliserRegistry = (*Registry)(nil)

// Registry maps content kinds to their normalisers.
type Registry struct {
	mu          sync.RWMutex
	normalisers map[domain.ContentKind]driven.Normaliser
}

// NewRegistry creates an empty normaliser registry.
func NewRegistry() *Registry {
	return &Registry{
		normalisers: make(map[domain.ContentKind]driven.Normaliser),
	}
}

// Register adds a normaliser, replacing any existing one for its kind.
func (r *Registry) Register(normaliser driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.normalisers[normaliser.Kind()] = normaliser
}

// Normalise dispatches raw to the normaliser registered for raw.Kind.
func (r *Registry) Normalise(ctx context.Context, raw *domain.RawSource) (*domain.NormalisedSource, error) {
	if raw == nil {
		return nil, domain.ErrInvalidInput
	}

	r.mu.RLock()
	n, ok := r.normalisers[raw.Kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no normaliser for kind %q", domain.ErrUnsupportedType, raw.Kind)
	}
	return n.Normalise(ctx, raw)
}

// SupportedKinds returns all registered kinds in sorted order.
func (r *Registry) SupportedKinds() []domain.ContentKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]domain.ContentKind, 0, len(r.normalisers))
	for k := range r.normalisers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}
