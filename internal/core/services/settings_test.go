package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

func env(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestSettingsService_GetDefaults(t *testing.T) {
	svc := NewSettingsService(newMockConfigStore()).WithEnv(env(nil))

	got, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, svc.GetDefaults(), *got)
	assert.Equal(t, 3, got.Retrieval.TopK)
	assert.Equal(t, "gpt-3.5-turbo", got.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", got.Embedding.Model)
}

func TestSettingsService_StoredValues(t *testing.T) {
	store := newMockConfigStore()
	store.values["retrieval.top_k"] = int64(5)
	store.values["retrieval.min_score"] = 0.25
	store.values["index.persist"] = false
	store.values["generation.timeout"] = "90s"
	store.values["llm.provider"] = "ollama"
	svc := NewSettingsService(store).WithEnv(env(nil))

	got, err := svc.Get()

	require.NoError(t, err)
	assert.Equal(t, 5, got.Retrieval.TopK)
	assert.InDelta(t, 0.25, got.Retrieval.MinScore, 1e-9)
	assert.False(t, got.Index.Persist)
	assert.Equal(t, 90*time.Second, got.Generation.Timeout)
	assert.Equal(t, domain.AIProviderOllama, got.LLM.Provider)
	assert.Equal(t, "llama3.2", got.LLM.Model, "model follows the provider when unset")
}

func TestSettingsService_InvalidStoredValue(t *testing.T) {
	store := newMockConfigStore()
	store.values["retrieval.top_k"] = "many"

	_, err := NewSettingsService(store).WithEnv(env(nil)).Get()

	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieval.top_k")
}

func TestSettingsService_EnvOverrides(t *testing.T) {
	t.Run("openai key feeds both openai providers", func(t *testing.T) {
		svc := NewSettingsService(newMockConfigStore()).WithEnv(env(map[string]string{
			"OPENAI_API_KEY": "sk-test",
			"CLIENT_ID":      "client",
			"TENANT_ID":      "tenant",
		}))

		got, err := svc.Get()

		require.NoError(t, err)
		assert.Equal(t, "sk-test", got.Embedding.APIKey)
		assert.Equal(t, "sk-test", got.LLM.APIKey)
		assert.Equal(t, "client", got.Source.Graph.ClientID)
		assert.Equal(t, "tenant", got.Source.Graph.TenantID)
	})

	t.Run("provider specific keys", func(t *testing.T) {
		store := newMockConfigStore()
		store.values["llm.provider"] = "anthropic"
		store.values["embedding.provider"] = "lexical"
		svc := NewSettingsService(store).WithEnv(env(map[string]string{
			"OPENAI_API_KEY":    "sk-openai",
			"ANTHROPIC_API_KEY": "sk-ant",
		}))

		got, err := svc.Get()

		require.NoError(t, err)
		assert.Equal(t, "sk-ant", got.LLM.APIKey)
		assert.Empty(t, got.Embedding.APIKey)
	})

	t.Run("environment beats config", func(t *testing.T) {
		store := newMockConfigStore()
		store.values["source.graph.user_principal"] = "old@example.com"
		svc := NewSettingsService(store).WithEnv(env(map[string]string{
			"USER_PRINCIPAL_NAME": "new@example.com",
		}))

		got, err := svc.Get()

		require.NoError(t, err)
		assert.Equal(t, "new@example.com", got.Source.Graph.UserPrincipal)
	})
}

func TestSettingsService_Set(t *testing.T) {
	store := newMockConfigStore()
	svc := NewSettingsService(store).WithEnv(env(nil))

	require.NoError(t, svc.Set("retrieval.top_k", "7"))
	require.NoError(t, svc.Set("retrieval.min_score", "0.5"))
	require.NoError(t, svc.Set("generation.timeout", "2m"))
	require.NoError(t, svc.Set("source.kind", "maildir"))

	assert.Equal(t, 7, store.values["retrieval.top_k"])
	assert.Equal(t, 0.5, store.values["retrieval.min_score"])
	assert.Equal(t, "2m", store.values["generation.timeout"])

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, 7, got.Retrieval.TopK)
	assert.Equal(t, 2*time.Minute, got.Generation.Timeout)
	assert.Equal(t, domain.SourceMaildir, got.Source.Kind)
}

func TestSettingsService_SetRejects(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"unknown key", "retrieval.depth", "3"},
		{"not a number", "retrieval.top_k", "three"},
		{"zero top k", "retrieval.top_k", "0"},
		{"unknown provider", "llm.provider", "mystery"},
		{"unknown source", "source.kind", "imap"},
		{"bad duration", "generation.timeout", "soon"},
		{"overlap not below size", "index.chunk_overlap", "10"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockConfigStore()
			store.values["index.chunk_size"] = 10
			svc := NewSettingsService(store).WithEnv(env(nil))

			err := svc.Set(tt.key, tt.value)

			assert.True(t, errors.Is(err, domain.ErrInvalidInput), "got %v", err)
			assert.NotContains(t, store.Keys(), tt.key)
		})
	}
}

func TestSettingsService_Keys(t *testing.T) {
	svc := NewSettingsService(newMockConfigStore())
	keys := svc.Keys()

	assert.Contains(t, keys, "retrieval.top_k")
	assert.Contains(t, keys, "source.graph.client_secret")
	assert.Equal(t, "embedding.provider", keys[0])

	assert.True(t, IsSecret("llm.api_key"))
	assert.True(t, IsSecret("source.gmail.client_secret"))
	assert.False(t, IsSecret("llm.model"))
	assert.False(t, IsSecret("nope"))
}

func TestSettingsService_Check(t *testing.T) {
	store := newMockConfigStore()
	store.values["embedding.provider"] = "lexical"
	store.values["llm.provider"] = "ollama"
	validator := &mockValidator{llmErr: errors.New("connection refused")}
	svc := NewSettingsService(store).WithEnv(env(nil)).WithValidator(validator)

	checks, err := svc.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, checks, 2)

	assert.Equal(t, "embedding", checks[0].Role)
	assert.Equal(t, domain.AIProviderLexical, checks[0].Provider)
	assert.Equal(t, "lexical-hash-512", checks[0].Model)
	assert.True(t, checks[0].OK())

	assert.Equal(t, "llm", checks[1].Role)
	assert.Equal(t, "llama3.2", checks[1].Model)
	assert.False(t, checks[1].OK())
	assert.ErrorContains(t, checks[1].Err, "connection refused")

	assert.Equal(t, []domain.AIProvider{domain.AIProviderLexical, domain.AIProviderOllama}, validator.checked)
}

func TestSettingsService_CheckWithoutValidator(t *testing.T) {
	svc := NewSettingsService(newMockConfigStore()).WithEnv(env(nil))

	_, err := svc.Check(context.Background())
	assert.Error(t, err)
}
