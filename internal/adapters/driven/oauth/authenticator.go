// Package oauth obtains and caches OAuth2 tokens for message sources.
//
// An Authenticator first tries the cached token, refreshing it silently
// when it has expired. Only when no usable token exists does it run an
// interactive flow: the device code flow in this package, or a browser
// flow supplied by the caller.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/oauth2"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
	"github.com/custodia-labs/mailqa/internal/logger"
)

// Flow runs an interactive authorisation and returns the resulting token.
type Flow func(ctx context.Context, cfg *oauth2.Config) (*oauth2.Token, error)

// Authenticator hands out token sources for one provider.
type Authenticator struct {
	provider string
	config   *oauth2.Config
	store    driven.TokenStore
	flow     Flow
}

// Option configures an Authenticator.
type Option func(*Authenticator)

// WithFlow sets the interactive flow used when no cached token works.
// Without one, TokenSource fails with domain.ErrAuthRequired instead.
func WithFlow(flow Flow) Option {
	return func(a *Authenticator) {
		a.flow = flow
	}
}

// NewAuthenticator creates an authenticator whose tokens are cached in
// store under provider.
func NewAuthenticator(provider string, cfg *oauth2.Config, store driven.TokenStore, opts ...Option) *Authenticator {
	a := &Authenticator{
		provider: provider,
		config:   cfg,
		store:    store,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Provider returns the name tokens are cached under.
func (a *Authenticator) Provider() string {
	return a.provider
}

// TokenSource returns a source of valid access tokens. Tokens refreshed
// later by the source are written back to the cache.
func (a *Authenticator) TokenSource(ctx context.Context) (oauth2.TokenSource, error) {
	if a.config == nil || a.config.ClientID == "" {
		return nil, fmt.Errorf("%w: %s: client id is not configured", domain.ErrAuthRequired, a.provider)
	}

	if tok, err := a.silent(ctx); err == nil {
		return a.persisting(ctx, tok), nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		logger.Debug("oauth: %s: cached token unusable: %v", a.provider, err)
	}

	if a.flow == nil {
		return nil, fmt.Errorf("%w: %s: no cached token and no interactive login available",
			domain.ErrAuthRequired, a.provider)
	}

	logger.Info("Signing in to %s", a.provider)
	tok, err := a.flow(ctx, a.config)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrAuthRequired, a.provider, err)
	}
	if err := a.store.SaveToken(a.provider, fromOAuth2(tok)); err != nil {
		logger.Warn("oauth: %s: could not cache token: %v", a.provider, err)
	}
	return a.persisting(ctx, tok), nil
}

// Forget removes the cached token so the next TokenSource signs in again.
func (a *Authenticator) Forget() error {
	return a.store.DeleteToken(a.provider)
}

// silent returns a valid token from the cache, refreshing it when needed.
func (a *Authenticator) silent(ctx context.Context) (*oauth2.Token, error) {
	cached, err := a.store.LoadToken(a.provider)
	if err != nil {
		return nil, err
	}

	tok := toOAuth2(cached)
	if tok.Valid() {
		return tok, nil
	}
	if !cached.CanRefresh() {
		return nil, errors.New("token expired and cannot be refreshed")
	}

	fresh, err := a.config.TokenSource(ctx, tok).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	logger.Debug("oauth: %s: token refreshed", a.provider)
	if err := a.store.SaveToken(a.provider, fromOAuth2(fresh)); err != nil {
		logger.Warn("oauth: %s: could not cache token: %v", a.provider, err)
	}
	return fresh, nil
}

func (a *Authenticator) persisting(ctx context.Context, tok *oauth2.Token) oauth2.TokenSource {
	return &persistingSource{
		base:     a.config.TokenSource(ctx, tok),
		last:     tok.AccessToken,
		provider: a.provider,
		store:    a.store,
	}
}

// persistingSource caches every token it has not seen before.
type persistingSource struct {
	mu       sync.Mutex
	base     oauth2.TokenSource
	last     string
	provider string
	store    driven.TokenStore
}

func (s *persistingSource) Token() (*oauth2.Token, error) {
	tok, err := s.base.Token()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if tok.AccessToken != s.last {
		s.last = tok.AccessToken
		if err := s.store.SaveToken(s.provider, fromOAuth2(tok)); err != nil {
			logger.Warn("oauth: %s: could not cache token: %v", s.provider, err)
		}
	}
	return tok, nil
}

func toOAuth2(t *domain.Token) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}

func fromOAuth2(t *oauth2.Token) *domain.Token {
	return &domain.Token{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		TokenType:    t.TokenType,
		Expiry:       t.Expiry,
	}
}
