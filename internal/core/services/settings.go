package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

// setting binds one config key to a field of domain.AppSettings.
type setting struct {
	key    string
	kind   settingKind
	secret bool
	field  func(s *domain.AppSettings) any // pointer to the field
}

//nolint:gosec // G101: These are config key names, not actual credentials.
var settingsTable = []setting{
	{key: "embedding.provider", field: func(s *domain.AppSettings) any { return &s.Embedding.Provider }},
	{key: "embedding.model", field: func(s *domain.AppSettings) any { return &s.Embedding.Model }},
	{key: "embedding.base_url", field: func(s *domain.AppSettings) any { return &s.Embedding.BaseURL }},
	{key: "embedding.api_key", secret: true, field: func(s *domain.AppSettings) any { return &s.Embedding.APIKey }},
	{key: "llm.provider", field: func(s *domain.AppSettings) any { return &s.LLM.Provider }},
	{key: "llm.model", field: func(s *domain.AppSettings) any { return &s.LLM.Model }},
	{key: "llm.base_url", field: func(s *domain.AppSettings) any { return &s.LLM.BaseURL }},
	{key: "llm.api_key", secret: true, field: func(s *domain.AppSettings) any { return &s.LLM.APIKey }},
	{key: "index.batch_size", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Index.BatchSize }},
	{key: "index.embed_workers", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Index.Workers }},
	{key: "index.chunk_size", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Index.ChunkSize }},
	{key: "index.chunk_overlap", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Index.ChunkOverlap }},
	{key: "index.persist", kind: kindBool, field: func(s *domain.AppSettings) any { return &s.Index.Persist }},
	{key: "retrieval.top_k", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Retrieval.TopK }},
	{key: "retrieval.min_score", kind: kindFloat, field: func(s *domain.AppSettings) any { return &s.Retrieval.MinScore }},
	{key: "retrieval.max_context_tokens", kind: kindInt,
		field: func(s *domain.AppSettings) any { return &s.Retrieval.MaxContextTokens }},
	{key: "generation.max_tokens", kind: kindInt, field: func(s *domain.AppSettings) any { return &s.Generation.MaxTokens }},
	{key: "generation.timeout", kind: kindDuration, field: func(s *domain.AppSettings) any { return &s.Generation.Timeout }},
	{key: "source.kind", field: func(s *domain.AppSettings) any { return &s.Source.Kind }},
	{key: "source.maildir_path", field: func(s *domain.AppSettings) any { return &s.Source.MaildirPath }},
	{key: "source.graph.client_id", field: func(s *domain.AppSettings) any { return &s.Source.Graph.ClientID }},
	{key: "source.graph.tenant_id", field: func(s *domain.AppSettings) any { return &s.Source.Graph.TenantID }},
	{key: "source.graph.client_secret", secret: true,
		field: func(s *domain.AppSettings) any { return &s.Source.Graph.ClientSecret }},
	{key: "source.graph.user_principal", field: func(s *domain.AppSettings) any { return &s.Source.Graph.UserPrincipal }},
	{key: "source.gmail.client_id", field: func(s *domain.AppSettings) any { return &s.Source.Gmail.ClientID }},
	{key: "source.gmail.client_secret", secret: true,
		field: func(s *domain.AppSettings) any { return &s.Source.Gmail.ClientSecret }},
}

// envOverrides maps environment variables to the keys they override.
// Names follow the variables commonly kept in a .env file.
var envOverrides = []struct {
	env  string
	keys []string
}{
	{"OPENAI_API_KEY", []string{"embedding.api_key", "llm.api_key"}},
	{"ANTHROPIC_API_KEY", []string{"llm.api_key"}},
	{"CLIENT_ID", []string{"source.graph.client_id"}},
	{"TENANT_ID", []string{"source.graph.tenant_id"}},
	{"CLIENT_SECRET", []string{"source.graph.client_secret"}},
	{"USER_PRINCIPAL_NAME", []string{"source.graph.user_principal"}},
	{"GOOGLE_CLIENT_ID", []string{"source.gmail.client_id"}},
	{"GOOGLE_CLIENT_SECRET", []string{"source.gmail.client_secret"}},
}

// SettingsService reads and writes application settings through a
// ConfigStore, with environment variables taking precedence.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore, lookupEnv: os.LookupEnv}
}

// WithEnv replaces the environment lookup. Used by tests.
func (s *SettingsService) WithEnv(lookup func(string) (string, bool)) *SettingsService {
	s.lookupEnv = lookup
	return s
}

// WithValidator sets the validator used by Check.
func (s *SettingsService) WithValidator(v driven.AIConfigValidator) *SettingsService {
	s.validator = v
	return s
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Keys lists the recognised setting keys in table order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingsTable))
	for i, def := range settingsTable {
		keys[i] = def.key
	}
	return keys
}

// IsSecret reports whether key holds a credential that should not be echoed.
func IsSecret(key string) bool {
	i := slices.IndexFunc(settingsTable, func(def setting) bool { return def.key == key })
	return i >= 0 && settingsTable[i].secret
}

// Get returns the stored settings merged over the defaults, then
// environment overrides. Models left unset follow the chosen provider.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := domain.DefaultAppSettings()
	stored := make(map[string]bool)

	for _, def := range settingsTable {
		raw, ok := s.configStore.Get(def.key)
		if !ok {
			continue
		}
		if err := assign(def, &settings, fmt.Sprint(raw)); err != nil {
			return nil, fmt.Errorf("config %s: %w", def.key, err)
		}
		stored[def.key] = true
	}

	for _, o := range envOverrides {
		v, ok := s.lookupEnv(o.env)
		if !ok || v == "" {
			continue
		}
		for _, key := range o.keys {
			if o.env == "ANTHROPIC_API_KEY" && settings.LLM.Provider != domain.AIProviderAnthropic {
				continue
			}
			if o.env == "OPENAI_API_KEY" && !usesOpenAI(&settings, key) {
				continue
			}
			if err := s.assignKey(&settings, key, v); err != nil {
				return nil, err
			}
		}
	}

	if !stored["embedding.model"] {
		settings.Embedding.Model = domain.DefaultEmbeddingModels()[settings.Embedding.Provider]
	}
	if !stored["llm.model"] {
		settings.LLM.Model = domain.DefaultLLMModels()[settings.LLM.Provider]
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// Set parses value for key, validates the resulting settings and persists it.
func (s *SettingsService) Set(key, value string) error {
	i := slices.IndexFunc(settingsTable, func(def setting) bool { return def.key == key })
	if i < 0 {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	def := settingsTable[i]

	current, err := s.Get()
	if err != nil {
		return err
	}
	if err := assign(def, current, value); err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := current.Validate(); err != nil {
		return err
	}

	stored, err := parse(def, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, stored); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Check pings the configured embedding and generation providers. A failed
// ping is reported in the check, not as an error.
func (s *SettingsService) Check(ctx context.Context) ([]domain.ProviderCheck, error) {
	if s.validator == nil {
		return nil, errors.New("no provider validator configured")
	}
	settings, err := s.Get()
	if err != nil {
		return nil, err
	}

	return []domain.ProviderCheck{
		{
			Role:     "embedding",
			Provider: settings.Embedding.Provider,
			Model:    settings.Embedding.Model,
			Err:      s.validator.ValidateEmbedding(ctx, settings.Embedding),
		},
		{
			Role:     "llm",
			Provider: settings.LLM.Provider,
			Model:    settings.LLM.Model,
			Err:      s.validator.ValidateLLM(ctx, settings.LLM),
		},
	}, nil
}

func (s *SettingsService) assignKey(settings *domain.AppSettings, key, value string) error {
	i := slices.IndexFunc(settingsTable, func(def setting) bool { return def.key == key })
	return assign(settingsTable[i], settings, value)
}

func usesOpenAI(s *domain.AppSettings, key string) bool {
	if key == "embedding.api_key" {
		return s.Embedding.Provider == domain.AIProviderOpenAI
	}
	return s.LLM.Provider == domain.AIProviderOpenAI
}

// parse converts a textual value into the type stored in the config file.
func parse(def setting, value string) (any, error) {
	switch def.kind {
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindBool:
		return strconv.ParseBool(value)
	case kindDuration:
		if _, err := time.ParseDuration(value); err != nil {
			return nil, err
		}
		return value, nil
	default:
		return value, nil
	}
}

// assign parses value and writes it into the field def binds.
func assign(def setting, settings *domain.AppSettings, value string) error {
	v, err := parse(def, value)
	if err != nil {
		return err
	}
	switch p := def.field(settings).(type) {
	case *string:
		*p = value
	case *domain.AIProvider:
		provider := domain.AIProvider(value)
		if !provider.IsValid() {
			return fmt.Errorf("unknown provider %q", value)
		}
		*p = provider
	case *domain.SourceKind:
		kind := domain.SourceKind(value)
		if !kind.IsValid() {
			return fmt.Errorf("unknown source %q", value)
		}
		*p = kind
	case *int:
		*p = v.(int)
	case *float64:
		*p = v.(float64)
	case *bool:
		*p = v.(bool)
	case *time.Duration:
		*p, _ = time.ParseDuration(value)
	}
	return nil
}
