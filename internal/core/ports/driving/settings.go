package driving

import "github.com/custodia-labs/sercha-code/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get returns the validated settings with defaults applied.
	Get() (*domain.Settings, error)

	// Set parses, validates and persists a single setting.
	Set(key, value string) error

	// Keys returns the supported setting keys in sorted order.
	Keys() []string
}
