package driven

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// Fetcher retrieves raw sources.
type Fetcher interface {
	// Fetch downloads the source at url. The returned RawSource has Kind set
	// to the requested kind.
	// Returns *domain.FetchError when the source is unreachable or answers non-2xx.
	Fetch(ctx context.Context, url string, kind domain.ContentKind) (*domain.RawSource, error)
}
