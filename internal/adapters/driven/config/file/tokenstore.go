package file

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/custodia-labs/mailqa/internal/core/domain"
	"github.com/custodia-labs/mailqa/internal/core/ports/driven"
)

// Ensure TokenStore implements the interface.
var _ driven.TokenStore = (*TokenStore)(nil)

// TokensDir is the token directory name under the mailqa home.
const TokensDir = "tokens"

var providerName = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

// TokenStore caches OAuth tokens as one JSON file per provider.
// Files are readable by the owner only.
type TokenStore struct {
	mu  sync.Mutex
	dir string
}

// NewTokenStore creates a token store rooted at dir.
// If dir is empty, defaults to ~/.mailqa/tokens.
func NewTokenStore(dir string) (*TokenStore, error) {
	if dir == "" {
		home, err := HomeDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(home, TokensDir)
	}
	return &TokenStore{dir: dir}, nil
}

// LoadToken returns the cached token for provider.
func (s *TokenStore) LoadToken(provider string) (*domain.Token, error) {
	path, err := s.path(provider)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: token for %s", domain.ErrNotFound, provider)
		}
		return nil, fmt.Errorf("read token: %w", err)
	}

	var token domain.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("parse token %s: %w", path, err)
	}
	return &token, nil
}

// SaveToken writes the token for provider, replacing any previous one.
func (s *TokenStore) SaveToken(provider string, token *domain.Token) error {
	if token == nil {
		return fmt.Errorf("%w: token is nil", domain.ErrInvalidInput)
	}
	path, err := s.path(provider)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return fmt.Errorf("encode token: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create token directory: %w", err)
	}

	// Write then rename so a crash never leaves a truncated token behind.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write token: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("write token: %w", err)
	}
	return nil
}

// DeleteToken removes the token for provider. Removing a token that was
// never saved is not an error.
func (s *TokenStore) DeleteToken(provider string) error {
	path, err := s.path(provider)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// Dir returns the token directory path.
func (s *TokenStore) Dir() string {
	return s.dir
}

func (s *TokenStore) path(provider string) (string, error) {
	if !providerName.MatchString(provider) {
		return "", fmt.Errorf("%w: invalid provider name %q", domain.ErrInvalidInput, provider)
	}
	return filepath.Join(s.dir, provider+".json"), nil
}
