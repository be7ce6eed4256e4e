package services

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// --- Mock implementations ---

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}$]+`)

// mockEmbedder implements driven.EmbeddingService with a bag of words over
// a fixed vocabulary, so similarity is fully predictable.
type mockEmbedder struct {
	vocab []string
	model string
	err   error

	mu    sync.Mutex
	calls int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(vocab ...string) *mockEmbedder {
	return &mockEmbedder{vocab: vocab, model: "mock-embed"}
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v := make([]float32, len(m.vocab))
		for _, w := range wordPattern.FindAllString(strings.ToLower(t), -1) {
			for j, term := range m.vocab {
				if w == term {
					v[j]++
				}
			}
		}
		out[i] = v
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vocab) }

func (m *mockEmbedder) ModelName() string { return m.model }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

// mockLLM implements driven.LLMService for testing.
// By default it echoes the context line that mentions the most question words,
// or the not-in-context marker when nothing matches.
type mockLLM struct {
	reply   string
	err     error
	block   bool
	prompts []string
	opts    []driven.GenerateOptions
}

var _ driven.LLMService = (*mockLLM)(nil)

func (m *mockLLM) Generate(ctx context.Context, prompt string, opts driven.GenerateOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	m.opts = append(m.opts, opts)
	if m.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if m.err != nil {
		return "", m.err
	}
	if m.reply != "" {
		return m.reply, nil
	}
	return bestLine(prompt), nil
}

// bestLine picks the "Body:" line of the context sharing most words with
// the question.
func bestLine(prompt string) string {
	_, afterContext, _ := strings.Cut(prompt, "Context:\n")
	contextText, question, _ := strings.Cut(afterContext, "\n\nQuestion: ")
	question, _, _ = strings.Cut(question, "\n")
	qWords := wordPattern.FindAllString(strings.ToLower(question), -1)

	best, bestScore := "", 0
	for line := range strings.Lines(contextText) {
		if !strings.HasPrefix(line, "Body:") {
			continue
		}
		score := 0
		lower := strings.ToLower(line)
		for _, w := range qWords {
			if len(w) > 2 && strings.Contains(lower, w) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = strings.TrimSpace(strings.TrimPrefix(line, "Body:")), score
		}
	}
	if best == "" {
		return driven.NotInContextMarker
	}
	return best
}

func (m *mockLLM) ModelName() string { return "mock-llm" }

func (m *mockLLM) Ping(_ context.Context) error { return nil }

func (m *mockLLM) Close() error { return nil }

// mockPromptStore implements driven.PromptStore for testing.
type mockPromptStore struct {
	prompts map[string]string
	err     error
}

func (m *mockPromptStore) Load(name string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPromptStore) Reload() {}

// mockSource implements driven.MessageSource for testing.
type mockSource struct {
	items   []string
	err     error
	lastDay time.Time
}

var _ driven.MessageSource = (*mockSource)(nil)

func (m *mockSource) Name() string { return "mock" }

func (m *mockSource) FetchDay(_ context.Context, day time.Time) ([]string, error) {
	m.lastDay = day
	return m.items, m.err
}

// mockConfigStore implements driven.ConfigStore in memory.
type mockConfigStore struct {
	values map[string]any
}

var _ driven.ConfigStore = (*mockConfigStore)(nil)

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: make(map[string]any)}
}

func (m *mockConfigStore) Get(key string) (any, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *mockConfigStore) GetString(key string) string {
	s, _ := m.values[key].(string)
	return s
}

func (m *mockConfigStore) GetInt(key string) int {
	i, _ := m.values[key].(int)
	return i
}

func (m *mockConfigStore) GetFloat(key string) float64 {
	f, _ := m.values[key].(float64)
	return f
}

func (m *mockConfigStore) GetBool(key string) bool {
	b, _ := m.values[key].(bool)
	return b
}

func (m *mockConfigStore) Set(key string, value any) error {
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Keys() []string {
	keys := make([]string, 0, len(m.values))
	for k := range m.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (m *mockConfigStore) Save() error { return nil }

func (m *mockConfigStore) Load() error { return nil }

func (m *mockConfigStore) Path() string { return "mock.toml" }

// mockValidator implements driven.AIConfigValidator.
type mockValidator struct {
	embedErr error
	llmErr   error
	checked  []domain.AIProvider
}

func (m *mockValidator) ValidateEmbedding(_ context.Context, s domain.ProviderSettings) error {
	m.checked = append(m.checked, s.Provider)
	return m.embedErr
}

func (m *mockValidator) ValidateLLM(_ context.Context, s domain.ProviderSettings) error {
	m.checked = append(m.checked, s.Provider)
	return m.llmErr
}
