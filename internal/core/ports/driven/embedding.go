package driven

import "context"

// EmbeddingService maps message text and questions into one vector space.
// A corpus built with one service can only be queried with vectors from
// the same model, so the model name is recorded with every session.
//
// Implementations: OpenAI and Ollama over HTTP, and the offline lexical
// hasher.
type EmbeddingService interface {
	// Embed returns the vector for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch returns one vector per text, in input order. An empty
	// batch returns nil without contacting the provider.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the vector size, or 0 when it is not known until
	// the first vector has been produced.
	Dimensions() int

	// ModelName identifies the model, and with it the vector space.
	ModelName() string

	// Ping checks that the provider is reachable and the model is
	// available, without embedding anything.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
