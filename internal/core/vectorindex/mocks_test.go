package vectorindex

import (
	"context"
	"strings"
	"sync"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// mockEmbedder implements driven.EmbeddingService for testing.
// Texts listed in vectors get that vector; anything else gets a
// bag-of-words vector over vocab.
type mockEmbedder struct {
	vocab   []string
	vectors map[string][]float32
	err     error
	block   bool

	mu        sync.Mutex
	calls     [][]string
	active    int
	maxActive int
}

var _ driven.EmbeddingService = (*mockEmbedder)(nil)

func newMockEmbedder(vocab ...string) *mockEmbedder {
	return &mockEmbedder{vocab: vocab, vectors: make(map[string][]float32)}
}

func (m *mockEmbedder) vector(text string) []float32 {
	if v, ok := m.vectors[text]; ok {
		return v
	}
	v := make([]float32, len(m.vocab))
	lower := strings.ToLower(text)
	for i, w := range m.vocab {
		v[i] = float32(strings.Count(lower, w))
	}
	return v
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vs[0], nil
}

func (m *mockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls = append(m.calls, texts)
	m.active++
	m.maxActive = max(m.maxActive, m.active)
	m.mu.Unlock()
	defer func() {
		m.mu.Lock()
		m.active--
		m.mu.Unlock()
	}()

	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.vector(t)
	}
	return out, nil
}

func (m *mockEmbedder) Dimensions() int { return len(m.vocab) }

func (m *mockEmbedder) ModelName() string { return "mock-embed" }

func (m *mockEmbedder) Ping(_ context.Context) error { return nil }

func (m *mockEmbedder) Close() error { return nil }

func (m *mockEmbedder) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockEmbedder) peakConcurrency() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.maxActive
}

// mockStore implements driven.IndexStore in memory for testing.
type mockStore struct {
	mu         sync.Mutex
	sessions   map[string]domain.SessionInfo
	entries    map[string][]domain.IndexEntry
	replaceErr error
	loads      int
	replaces   int

	// afterReplace runs once a replacement has been stored.
	afterReplace func()
}

var _ driven.IndexStore = (*mockStore)(nil)

func newMockStore() *mockStore {
	return &mockStore{
		sessions: make(map[string]domain.SessionInfo),
		entries:  make(map[string][]domain.IndexEntry),
	}
}

func (s *mockStore) ReplaceSession(_ context.Context, info domain.SessionInfo, entries []domain.IndexEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.replaceErr != nil {
		return s.replaceErr
	}
	s.sessions[info.Name] = info
	s.entries[info.Name] = entries
	s.replaces++
	if s.afterReplace != nil {
		s.afterReplace()
	}
	return nil
}

func (s *mockStore) LoadSession(_ context.Context, name string) (domain.SessionInfo, []domain.IndexEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	info, ok := s.sessions[name]
	if !ok {
		return domain.SessionInfo{}, nil, domain.ErrNotFound
	}
	return info, s.entries[name], nil
}

func (s *mockStore) DeleteSession(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
	delete(s.entries, name)
	return nil
}

func (s *mockStore) ListSessions(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.SessionInfo, 0, len(s.sessions))
	for _, info := range s.sessions {
		out = append(out, info)
	}
	return out, nil
}

func (s *mockStore) Close() error { return nil }

func units(contents ...string) []domain.TextUnit {
	out := make([]domain.TextUnit, len(contents))
	for i, c := range contents {
		out[i] = domain.TextUnit{ID: c, Content: c, Metadata: map[string]string{domain.MetaItem: c}}
	}
	return out
}

// cancellingEmbedder cancels the build context after embedding succeeds.
type cancellingEmbedder struct {
	driven.EmbeddingService
	cancel context.CancelFunc
}

func (c *cancellingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out, err := c.EmbeddingService.EmbedBatch(ctx, texts)
	c.cancel()
	return out, err
}
