package driving

import (
	"context"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// QAService answers questions against a built corpus.
type QAService interface {
	// Answer retrieves grounding for question from h, generates an answer
	// and returns it with the exact units used as context.
	Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error)

	// AnswerWithK is Answer with an explicit retrieval depth.
	// k <= 0 uses the configured default.
	AnswerWithK(ctx context.Context, h *vectorindex.Handle, question string, k int) (*domain.AnswerRecord, error)
}
