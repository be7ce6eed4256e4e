package driven

import "github.com/custodia-labs/mailqa/internal/core/domain"

// TokenStore caches OAuth tokens per provider so message sources can
// authenticate silently between runs.
type TokenStore interface {
	// LoadToken returns the cached token for provider.
	// Returns domain.ErrNotFound when nothing is cached.
	LoadToken(provider string) (*domain.Token, error)

	// SaveToken caches the token for provider.
	SaveToken(provider string, token *domain.Token) error

	// DeleteToken forgets the token for provider.
	DeleteToken(provider string) error
}
