package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

func TestConfigValidator_ImplementsInterface(t *testing.T) {
	var _ driven.AIConfigValidator = NewConfigValidator()
}

func ollamaServer(t *testing.T, status int) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"models":[{"name":"llama3.2:latest"},{"name":"nomic-embed-text:latest"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestConfigValidator_ValidateEmbedding(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	t.Run("lexical always answers", func(t *testing.T) {
		err := v.ValidateEmbedding(ctx, domain.ProviderSettings{Provider: domain.AIProviderLexical})
		assert.NoError(t, err)
	})

	t.Run("reachable ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)
		err := v.ValidateEmbedding(ctx, domain.ProviderSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "nomic-embed-text",
		})
		assert.NoError(t, err)
	})

	t.Run("failing ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusInternalServerError)
		err := v.ValidateEmbedding(ctx, domain.ProviderSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "nomic-embed-text",
		})
		assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)
	})

	t.Run("misconfigured", func(t *testing.T) {
		err := v.ValidateEmbedding(ctx, domain.ProviderSettings{Provider: domain.AIProviderOpenAI})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}

func TestConfigValidator_ValidateLLM(t *testing.T) {
	v := NewConfigValidator()
	ctx := context.Background()

	t.Run("reachable ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)
		err := v.ValidateLLM(ctx, domain.ProviderSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "llama3.2",
		})
		assert.NoError(t, err)
	})

	t.Run("failing ollama", func(t *testing.T) {
		server := ollamaServer(t, http.StatusServiceUnavailable)
		err := v.ValidateLLM(ctx, domain.ProviderSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "llama3.2",
		})
		assert.ErrorIs(t, err, domain.ErrGenerationService)
	})

	t.Run("model not pulled", func(t *testing.T) {
		server := ollamaServer(t, http.StatusOK)
		err := v.ValidateLLM(ctx, domain.ProviderSettings{
			Provider: domain.AIProviderOllama, BaseURL: server.URL, Model: "qwen2.5",
		})
		assert.ErrorIs(t, err, domain.ErrGenerationService)
		assert.ErrorContains(t, err, "ollama pull qwen2.5")
	})

	t.Run("lexical cannot generate", func(t *testing.T) {
		err := v.ValidateLLM(ctx, domain.ProviderSettings{Provider: domain.AIProviderLexical})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})
}
