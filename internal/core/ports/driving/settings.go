package driving

import (
	"context"

	"github.com/custodia-labs/mailqa/internal/core/domain"
)

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current settings merged over the defaults.
	Get() (*domain.AppSettings, error)

	// Set stores a single setting by its dotted key.
	Set(key, value string) error

	// Keys lists the recognised setting keys.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// Check pings the configured embedding and generation providers.
	Check(ctx context.Context) ([]domain.ProviderCheck, error)
}
