package ai

import (
	"context"
	"fmt"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator validates AI provider configurations.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding builds the embedding provider and pings it once,
// without retries.
func (v *ConfigValidator) ValidateEmbedding(ctx context.Context, settings domain.ProviderSettings) error {
	svc, err := createEmbedding(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(ctx, svc); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrEmbeddingProvider, settings.Provider, err)
	}
	return nil
}

// ValidateLLM builds the generation provider and pings it.
func (v *ConfigValidator) ValidateLLM(ctx context.Context, settings domain.ProviderSettings) error {
	svc, err := NewLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	if err := ping(ctx, svc); err != nil {
		return fmt.Errorf("%w: %s unreachable: %w", domain.ErrGenerationService, settings.Provider, err)
	}
	return nil
}
