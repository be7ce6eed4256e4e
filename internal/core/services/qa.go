package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// Ensure QAService implements the interface.
var _ driving.QAService = (*QAService)(nil)

// QAService runs retrieve, assemble and generate for one question.
// Answers are never cached: every call recomputes against the handle given.
type QAService struct {
	retriever *Retriever
	assembler *Assembler
	generator *Generator
	timeout   time.Duration
}

// NewQAService creates a QAService. timeout is the deadline applied when
// the caller's context has none; zero disables it.
func NewQAService(retriever *Retriever, assembler *Assembler, generator *Generator, timeout time.Duration) *QAService {
	return &QAService{
		retriever: retriever,
		assembler: assembler,
		generator: generator,
		timeout:   timeout,
	}
}

// Answer answers question using the default retrieval depth.
func (s *QAService) Answer(ctx context.Context, h *vectorindex.Handle, question string) (*domain.AnswerRecord, error) {
	return s.AnswerWithK(ctx, h, question, 0)
}

// AnswerWithK answers question from the k units of h most similar to it.
// The record's sources are exactly the units placed in the context, in
// rank order. An expired deadline yields domain.ErrTimeout, never a
// partial answer.
func (s *QAService) AnswerWithK(
	ctx context.Context, h *vectorindex.Handle, question string, k int,
) (*domain.AnswerRecord, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if _, ok := ctx.Deadline(); !ok && s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Section("Answer")
	start := time.Now()

	results, err := s.retriever.Retrieve(ctx, h, question, k)
	if err != nil {
		return nil, fmt.Errorf("retrieve: %w", domain.ContextError(ctx, err))
	}

	contextText, used := s.assembler.AssembleBounded(results)
	logger.Debug("context: %d units, ~%d tokens", len(used), EstimateTokens(contextText))

	gen, err := s.generator.Generate(ctx, question, contextText)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", domain.ContextError(ctx, err))
	}
	if err := ctx.Err(); err != nil {
		return nil, domain.ContextError(ctx, err)
	}

	record := &domain.AnswerRecord{
		Question: question,
		Answer:   gen.Text,
		Grounded: gen.Grounded,
		Sources:  domain.SourcesFrom(used),
		Model:    s.generator.Model(),
		Elapsed:  time.Since(start),
	}
	logger.Debug("answered in %s, grounded=%t", record.Elapsed, record.Grounded)
	return record, nil
}
