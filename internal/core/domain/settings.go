package domain

import (
	"fmt"
	"time"
)

const unknownDescription = "Unknown"

// AIProvider identifies an embedding or language-model provider.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is the Anthropic cloud API (generation only).
	AIProviderAnthropic AIProvider = "anthropic"

	// AIProviderLexical is the built-in hashed bag-of-words embedder.
	// It needs no network and is meant for offline use and demos.
	AIProviderLexical AIProvider = "lexical"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic, AIProviderLexical:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	case AIProviderLexical:
		return "Lexical (built-in, offline)"
	default:
		return unknownDescription
	}
}

// SourceKind identifies a message source.
type SourceKind string

// Available message sources.
const (
	SourceGraph   SourceKind = "graph"
	SourceGmail   SourceKind = "gmail"
	SourceMaildir SourceKind = "maildir"
)

// IsValid returns true if the source kind is recognised.
func (k SourceKind) IsValid() bool {
	switch k {
	case SourceGraph, SourceGmail, SourceMaildir:
		return true
	default:
		return false
	}
}

// ProviderSettings configures one embedding or generation provider.
type ProviderSettings struct {
	// Provider is the service provider.
	Provider AIProvider

	// Model is the model name.
	Model string

	// BaseURL overrides the API endpoint.
	BaseURL string

	// APIKey authenticates cloud providers.
	APIKey string
}

// IsConfigured returns true if the provider is usable.
func (p ProviderSettings) IsConfigured() bool {
	if !p.Provider.IsValid() {
		return false
	}
	if p.Provider.RequiresAPIKey() && p.APIKey == "" {
		return false
	}
	return true
}

// IndexSettings controls how corpora are built.
type IndexSettings struct {
	// BatchSize is the number of texts per embedding request.
	BatchSize int

	// Workers is the number of embedding requests in flight during a build.
	Workers int

	// ChunkSize splits long units into chunks of at most this many
	// characters. Zero keeps one unit per message.
	ChunkSize int

	// ChunkOverlap is the number of characters shared by adjacent chunks.
	ChunkOverlap int

	// Persist stores built corpora in the local database.
	Persist bool
}

// RetrievalSettings controls retrieval and context assembly.
type RetrievalSettings struct {
	// TopK is the default number of units retrieved per question.
	TopK int

	// MinScore drops hits scoring below it. Zero disables the floor.
	MinScore float64

	// MaxContextTokens bounds the assembled context (estimated tokens).
	MaxContextTokens int
}

// GenerationSettings controls answer generation.
type GenerationSettings struct {
	// MaxTokens caps the generated answer length.
	MaxTokens int

	// Timeout is the default deadline for answering a question.
	Timeout time.Duration
}

// GraphSettings configures the Microsoft Graph source.
type GraphSettings struct {
	ClientID      string
	TenantID      string
	ClientSecret  string
	UserPrincipal string
}

// GmailSettings configures the Gmail source.
type GmailSettings struct {
	ClientID     string
	ClientSecret string
}

// SourceSettings configures where messages come from.
type SourceSettings struct {
	// Kind selects the default source.
	Kind SourceKind

	// MaildirPath is the directory scanned by the maildir source.
	MaildirPath string

	Graph GraphSettings
	Gmail GmailSettings
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding  ProviderSettings
	LLM        ProviderSettings
	Index      IndexSettings
	Retrieval  RetrievalSettings
	Generation GenerationSettings
	Source     SourceSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// Both embedding and generation default to OpenAI, so an API key is needed.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: ProviderSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultEmbeddingModels()[AIProviderOpenAI],
		},
		LLM: ProviderSettings{
			Provider: AIProviderOpenAI,
			Model:    DefaultLLMModels()[AIProviderOpenAI],
		},
		Index: IndexSettings{
			BatchSize: 64,
			Workers:   4,
			Persist:   true,
		},
		Retrieval: RetrievalSettings{
			TopK:             3,
			MaxContextTokens: 3000,
		},
		Generation: GenerationSettings{
			MaxTokens: 512,
			Timeout:   60 * time.Second,
		},
		Source: SourceSettings{
			Kind: SourceGraph,
		},
	}
}

// Validate checks numeric settings for consistency.
func (s AppSettings) Validate() error {
	switch {
	case s.Index.BatchSize <= 0:
		return fmt.Errorf("%w: index.batch_size must be positive", ErrInvalidInput)
	case s.Index.Workers <= 0:
		return fmt.Errorf("%w: index.embed_workers must be positive", ErrInvalidInput)
	case s.Index.ChunkSize < 0:
		return fmt.Errorf("%w: index.chunk_size must not be negative", ErrInvalidInput)
	case s.Index.ChunkSize > 0 && s.Index.ChunkOverlap >= s.Index.ChunkSize:
		return fmt.Errorf("%w: index.chunk_overlap must be smaller than index.chunk_size", ErrInvalidInput)
	case s.Retrieval.TopK <= 0:
		return fmt.Errorf("%w: retrieval.top_k must be positive", ErrInvalidInput)
	case s.Retrieval.MaxContextTokens < 0:
		return fmt.Errorf("%w: retrieval.max_context_tokens must not be negative", ErrInvalidInput)
	case s.Generation.Timeout < 0:
		return fmt.Errorf("%w: generation.timeout must not be negative", ErrInvalidInput)
	}
	return nil
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:  "nomic-embed-text",
		AIProviderOpenAI:  "text-embedding-3-small",
		AIProviderLexical: "lexical-hash-512",
	}
}

// DefaultLLMModels returns default models for each generation provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-3.5-turbo",
		AIProviderAnthropic: "claude-3-5-haiku-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		"nomic-embed-text":       768,
		"mxbai-embed-large":      1024,
		"all-minilm":             384,
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
		"lexical-hash-512":       512,
	}
}

// ProviderCheck is the outcome of pinging one configured provider.
type ProviderCheck struct {
	// Role is "embedding" or "llm".
	Role string

	// Provider and Model identify what was checked.
	Provider AIProvider
	Model    string

	// Err is nil when the provider answered.
	Err error
}

// OK reports whether the provider answered.
func (c ProviderCheck) OK() bool {
	return c.Err == nil
}
