package driving

import "github.com/welshwandering/doctrine/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get retrieves current application settings.
	Get() (*domain.Settings, error)

	// Save persists application settings.
	Save(settings *domain.Settings) error

	// Set updates one setting addressed by its dot-key, parsing the
	// value according to the setting's type.
	Set(key, value string) error

	// GitHubToken resolves the token for GitHub sources. The
	// DOCTRINE_GITHUB_TOKEN environment variable takes precedence
	// over the config file.
	GitHubToken() string

	// Defaults returns default settings.
	Defaults() domain.Settings
}
