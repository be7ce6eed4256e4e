package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

type storedSession struct {
	info    domain.SessionInfo
	entries []domain.IndexEntry
}

// IndexStore keeps corpora in process memory. Corpora are lost on exit.
type IndexStore struct {
	mu       sync.RWMutex
	sessions map[string]storedSession
}

// NewIndexStore creates an empty in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{sessions: make(map[string]storedSession)}
}

// ReplaceSession stores a copy of entries under info.Name.
func (s *IndexStore) ReplaceSession(ctx context.Context, info domain.SessionInfo, entries []domain.IndexEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	info.Units = len(entries)
	copied := copyEntries(entries)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[info.Name] = storedSession{info: info, entries: copied}
	return nil
}

// LoadSession returns a copy of the stored corpus.
func (s *IndexStore) LoadSession(_ context.Context, name string) (domain.SessionInfo, []domain.IndexEntry, error) {
	s.mu.RLock()
	stored, ok := s.sessions[name]
	s.mu.RUnlock()
	if !ok {
		return domain.SessionInfo{}, nil, fmt.Errorf("session %q: %w", name, domain.ErrNotFound)
	}
	return stored.info, copyEntries(stored.entries), nil
}

// DeleteSession removes a session.
func (s *IndexStore) DeleteSession(_ context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, name)
	return nil
}

// ListSessions returns stored sessions ordered by name.
func (s *IndexStore) ListSessions(_ context.Context) ([]domain.SessionInfo, error) {
	s.mu.RLock()
	out := make([]domain.SessionInfo, 0, len(s.sessions))
	for _, stored := range s.sessions {
		out = append(out, stored.info)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b domain.SessionInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// Close releases resources.
func (s *IndexStore) Close() error {
	return nil
}

func copyEntries(entries []domain.IndexEntry) []domain.IndexEntry {
	out := make([]domain.IndexEntry, len(entries))
	for i, e := range entries {
		out[i] = domain.IndexEntry{Unit: e.Unit.Clone(), Vector: slices.Clone(e.Vector)}
	}
	return out
}
