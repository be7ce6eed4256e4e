package driven

import (
	"context"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// IndexStore persists built corpora keyed by session name.
// The on-disk format is internal to the implementation.
type IndexStore interface {
	// ReplaceSession atomically replaces the corpus stored for info.Name.
	// Either every entry is stored or the previous corpus is kept.
	ReplaceSession(ctx context.Context, info domain.SessionInfo, entries []domain.IndexEntry) error

	// LoadSession returns the stored corpus in insertion order.
	// Returns domain.ErrNotFound if the session has never been stored.
	LoadSession(ctx context.Context, name string) (domain.SessionInfo, []domain.IndexEntry, error)

	// DeleteSession removes a session. Deleting a missing session is not an error.
	DeleteSession(ctx context.Context, name string) error

	// ListSessions returns the stored sessions ordered by name.
	ListSessions(ctx context.Context) ([]domain.SessionInfo, error)

	// Close releases resources.
	Close() error
}
