package driven

import (
	"context"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// AIConfigValidator validates AI provider configurations.
// Implementations verify that configurations are valid by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding builds the embedding provider and pings it.
	ValidateEmbedding(ctx context.Context, settings domain.ProviderSettings) error

	// ValidateLLM builds the generation provider and pings it.
	ValidateLLM(ctx context.Context, settings domain.ProviderSettings) error
}
