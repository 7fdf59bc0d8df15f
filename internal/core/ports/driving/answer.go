package driving

import (
	"context"

	"github.com/aksara-legal/aksara/internal/core/domain"
)

// AnswerService answers questions only when the answer can be cited.
type AnswerService interface {
	// Answer returns a grounded answer or a refusal. A refusal is not an error.
	// Returns *domain.GenerationError when generation fails or is empty.
	Answer(ctx context.Context, q domain.Question) (*domain.Answer, error)
}
