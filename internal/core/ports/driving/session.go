package driving

import (
	"context"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// SessionService manages built corpora.
type SessionService interface {
	// Open returns the current handle of session.
	// Returns domain.ErrEmptyIndex if the session was never built.
	Open(ctx context.Context, session string) (*vectorindex.Handle, error)

	// List returns every known session ordered by name.
	List(ctx context.Context) ([]domain.SessionInfo, error)

	// Drop deletes a session.
	Drop(ctx context.Context, session string) error
}
