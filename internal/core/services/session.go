package services

import (
	"context"
	"strings"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driving"
	"github.com/custodia-labs/mailqa/internal/core/vectorindex"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService exposes the corpora held by a vector index.
type SessionService struct {
	index *vectorindex.Index
}

// NewSessionService creates a SessionService.
func NewSessionService(index *vectorindex.Index) *SessionService {
	return &SessionService{index: index}
}

// Open returns the current handle of session. An empty name opens
// domain.DefaultSession.
func (s *SessionService) Open(ctx context.Context, session string) (*vectorindex.Handle, error) {
	return s.index.Current(ctx, sessionName(session))
}

// List returns every known session ordered by name.
func (s *SessionService) List(ctx context.Context) ([]domain.SessionInfo, error) {
	return s.index.Sessions(ctx)
}

// Drop deletes a session.
func (s *SessionService) Drop(ctx context.Context, session string) error {
	return s.index.Drop(ctx, sessionName(session))
}

func sessionName(session string) string {
	if session = strings.TrimSpace(session); session == "" {
		return domain.DefaultSession
	}
	return session
}
