// Package ai builds embedding and generation adapters from provider settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/lexical"
	ollamaembed "github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/openai"
	"github.com/custodia-labs/mailqa/internal/adapters/driven/embedding/retry"
	anthropicllm "github.com/custodia-labs/mailqa/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/mailqa/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/mailqa/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Services holds the adapters built from AppSettings.
type Services struct {
	Embedding driven.EmbeddingService
	LLM       driven.LLMService
}

// Close releases all resources held by the services.
func (s *Services) Close() {
	if s.Embedding != nil {
		s.Embedding.Close()
	}
	if s.LLM != nil {
		s.LLM.Close()
	}
}

// NewServices builds both adapters. Network embedders are wrapped with
// retry using opts.
func NewServices(settings *domain.AppSettings, opts ...retry.Option) (*Services, error) {
	embedder, err := NewEmbeddingService(settings.Embedding, opts...)
	if err != nil {
		return nil, err
	}
	llm, err := NewLLMService(settings.LLM)
	if err != nil {
		embedder.Close()
		return nil, err
	}
	return &Services{Embedding: embedder, LLM: llm}, nil
}

// NewEmbeddingService creates the embedding service for settings. Network
// providers are wrapped with retry; the lexical embedder is returned as is.
func NewEmbeddingService(settings domain.ProviderSettings, opts ...retry.Option) (driven.EmbeddingService, error) {
	svc, err := createEmbedding(settings)
	if err != nil {
		return nil, err
	}
	if settings.Provider == domain.AIProviderLexical {
		return svc, nil
	}
	return retry.New(svc, opts...), nil
}

func createEmbedding(settings domain.ProviderSettings) (driven.EmbeddingService, error) {
	if err := checkConfigured("embedding", settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderLexical:
		return lexical.NewEmbeddingService(lexicalDimensions(settings.Model)), nil

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     settings.APIKey,
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: domain.EmbeddingDimensions()[settings.Model],
		})

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("%w: anthropic does not provide embeddings, use openai, ollama or lexical",
			domain.ErrInvalidInput)
	}
	return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, settings.Provider)
}

// NewLLMService creates the generation service for settings.
func NewLLMService(settings domain.ProviderSettings) (driven.LLMService, error) {
	if err := checkConfigured("llm", settings); err != nil {
		return nil, err
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderOpenAI:
		return openaillm.NewLLMService(openaillm.LLMConfig{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderLexical:
		return nil, fmt.Errorf("%w: lexical cannot generate answers, use openai, anthropic or ollama",
			domain.ErrInvalidInput)
	}
	return nil, fmt.Errorf("%w: unsupported llm provider %q", domain.ErrInvalidInput, settings.Provider)
}

func checkConfigured(role string, settings domain.ProviderSettings) error {
	if !settings.Provider.IsValid() {
		return fmt.Errorf("%w: unknown %s provider %q", domain.ErrInvalidInput, role, settings.Provider)
	}
	if !settings.IsConfigured() {
		return fmt.Errorf("%w: %s.api_key is required for %s (run 'mailqa settings set-secret %s.api_key')",
			domain.ErrInvalidInput, role, settings.Provider, role)
	}
	return nil
}

// lexicalDimensions reads the bucket count from a "lexical-hash-N" model name.
func lexicalDimensions(model string) int {
	var n int
	if _, err := fmt.Sscanf(model, "lexical-hash-%d", &n); err != nil || n <= 0 {
		return lexical.DefaultDimensions
	}
	return n
}

// ping checks connectivity with a bounded wait.
func ping(ctx context.Context, p interface{ Ping(context.Context) error }) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	return p.Ping(ctx)
}
