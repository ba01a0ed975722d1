package driven

import "github.com/custodia-labs/athena/internal/core/domain"

// SettingsStore provides access to application configuration.
// Implementations handle persistence (e.g., TOML files) and environment overrides.
type SettingsStore interface {
	// Load reads settings from storage, applying defaults and overrides.
	Load() (domain.AppSettings, error)

	// Save persists settings to storage.
	Save(settings domain.AppSettings) error

	// Path returns the configuration file path.
	Path() string
}
