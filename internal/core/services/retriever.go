package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// DefaultTopK is the number of units retrieved when none is configured.
const DefaultTopK = 3

// Retriever embeds questions and finds the most similar units of a corpus.
type Retriever struct {
	embedder driven.EmbeddingService
	topK     int
	minScore float64
}

// NewRetriever creates a Retriever. topK <= 0 uses DefaultTopK.
// Hits scoring below minScore are dropped; zero keeps everything.
func NewRetriever(embedder driven.EmbeddingService, topK int, minScore float64) *Retriever {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &Retriever{embedder: embedder, topK: topK, minScore: minScore}
}

// TopK returns the default retrieval depth.
func (r *Retriever) TopK() int {
	return r.topK
}

// Retrieve returns up to k units of h most similar to question, best first.
// k <= 0 uses the default depth. Hits with no positive similarity share
// nothing with the question and are dropped, as are hits below the
// configured floor.
func (r *Retriever) Retrieve(ctx context.Context, h *vectorindex.Handle, question string, k int) ([]domain.ScoredUnit, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = r.topK
	}
	if h.Len() == 0 {
		return nil, domain.ErrEmptyIndex
	}
	if model := r.embedder.ModelName(); h.Model() != "" && model != h.Model() {
		return nil, fmt.Errorf("%w: corpus built with %q, question embedded with %q",
			domain.ErrEmbeddingProvider, h.Model(), model)
	}

	logger.Debug("retrieving top %d for %q from session %q", k, question, h.Session())
	query, err := r.embedder.Embed(ctx, question)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return nil, domain.ContextError(ctx, err)
		}
		if errors.Is(err, domain.ErrEmbeddingProvider) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrEmbeddingProvider, err)
	}

	results, err := h.Search(query, k)
	if err != nil {
		return nil, err
	}
	kept := results[:0]
	for _, res := range results {
		if res.Score > 0 && res.Score >= r.minScore {
			kept = append(kept, res)
		}
	}
	results = kept

	for i, res := range results {
		logger.Debug("  %d. %.4f %s", i+1, res.Score, res.Unit.Title())
	}
	return results, nil
}
