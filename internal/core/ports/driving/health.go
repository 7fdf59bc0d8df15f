package driving

import "context"

// Health check statuses.
const (
	StatusOK       = "ok"
	StatusEmpty    = "empty"
	StatusDegraded = "degraded"
	StatusDown     = "down"
)

// HealthService reports backend readiness.
type HealthService interface {
	Check(ctx context.Context) HealthReport
}

// HealthReport summarises component statuses.
type HealthReport struct {
	// Status is ok only when every component is usable.
	Status string

	DB        string
	RAG       string
	Embedding string
	LLM       string

	// Chunks is the number of stored chunks.
	Chunks int

	// Errors holds component failures keyed by component name.
	Errors map[string]string
}
