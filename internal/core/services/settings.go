package services

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
	"github.com/welshwandering/doctrine/internal/core/ports/driving"
)

// EnvGitHubToken is the environment variable consulted before the
// config file when resolving the GitHub token.
const EnvGitHubToken = "DOCTRINE_GITHUB_TOKEN"

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyGitHubToken      = "github.token"
	keyIndexFile        = "index.file"
	keySearchLimit      = "search.limit"
	keyScanInterval     = "scan.interval"
	keyProbeEnabled     = "probe.enabled"
	keyProbeTimeout     = "probe.timeout"
	keyProbeTTL         = "probe.ttl"
	keyProbeConcurrency = "probe.concurrency"
	keyProbeInterval    = "probe.interval"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, falling back to defaults
// for anything the user has not configured.
func (s *SettingsService) Get() (*domain.Settings, error) {
	if s.configStore == nil {
		return nil, domain.ErrNotImplemented
	}

	defaults := domain.DefaultSettings()
	settings := &domain.Settings{
		GitHubToken:      s.configStore.GetString(keyGitHubToken),
		IndexFile:        s.getString(keyIndexFile, defaults.IndexFile),
		SearchLimit:      s.getInt(keySearchLimit, defaults.SearchLimit),
		ScanInterval:     s.getDuration(keyScanInterval, defaults.ScanInterval),
		ProbeEnabled:     s.getBool(keyProbeEnabled, defaults.ProbeEnabled),
		ProbeTimeout:     s.getDuration(keyProbeTimeout, defaults.ProbeTimeout),
		ProbeTTL:         s.getDuration(keyProbeTTL, defaults.ProbeTTL),
		ProbeConcurrency: s.getInt(keyProbeConcurrency, defaults.ProbeConcurrency),
		ProbeInterval:    s.getDuration(keyProbeInterval, defaults.ProbeInterval),
	}
	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.Settings) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}
	if settings == nil {
		return fmt.Errorf("%w: settings are nil", domain.ErrInvalidInput)
	}

	// An empty token means "leave the stored one alone", so clearing a
	// token goes through `settings set github.token ""`.
	if settings.GitHubToken != "" {
		if err := s.configStore.Set(keyGitHubToken, settings.GitHubToken); err != nil {
			return fmt.Errorf("save github token: %w", err)
		}
	}
	if err := s.configStore.Set(keyIndexFile, settings.IndexFile); err != nil {
		return fmt.Errorf("save index file: %w", err)
	}
	if err := s.configStore.Set(keySearchLimit, int64(settings.SearchLimit)); err != nil {
		return fmt.Errorf("save search limit: %w", err)
	}
	if err := s.configStore.Set(keyScanInterval, settings.ScanInterval.String()); err != nil {
		return fmt.Errorf("save scan interval: %w", err)
	}
	if err := s.configStore.Set(keyProbeEnabled, settings.ProbeEnabled); err != nil {
		return fmt.Errorf("save probe enabled: %w", err)
	}
	if err := s.configStore.Set(keyProbeTimeout, settings.ProbeTimeout.String()); err != nil {
		return fmt.Errorf("save probe timeout: %w", err)
	}
	if err := s.configStore.Set(keyProbeTTL, settings.ProbeTTL.String()); err != nil {
		return fmt.Errorf("save probe ttl: %w", err)
	}
	if err := s.configStore.Set(keyProbeConcurrency, int64(settings.ProbeConcurrency)); err != nil {
		return fmt.Errorf("save probe concurrency: %w", err)
	}
	if err := s.configStore.Set(keyProbeInterval, settings.ProbeInterval.String()); err != nil {
		return fmt.Errorf("save probe interval: %w", err)
	}
	return nil
}

// Set updates one setting addressed by its dot-key, parsing the value
// according to the setting's type.
func (s *SettingsService) Set(key, value string) error {
	if s.configStore == nil {
		return domain.ErrNotImplemented
	}

	switch key {
	case keyGitHubToken, keyIndexFile:
		return s.configStore.Set(key, value)

	case keySearchLimit, keyProbeConcurrency:
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return fmt.Errorf("%w: %s needs a positive integer, got %q", domain.ErrInvalidInput, key, value)
		}
		return s.configStore.Set(key, int64(n))

	case keyScanInterval, keyProbeTimeout, keyProbeTTL, keyProbeInterval:
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return fmt.Errorf("%w: %s needs a duration such as \"15m\", got %q", domain.ErrInvalidInput, key, value)
		}
		return s.configStore.Set(key, d.String())

	case keyProbeEnabled:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s needs true or false, got %q", domain.ErrInvalidInput, key, value)
		}
		return s.configStore.Set(key, b)

	default:
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
}

// GitHubToken resolves the token for GitHub sources. The environment
// variable takes precedence over the config file, so CI jobs can
// inject a token without touching stored settings.
func (s *SettingsService) GitHubToken() string {
	if token := os.Getenv(EnvGitHubToken); token != "" {
		return token
	}
	if s.configStore == nil {
		return ""
	}
	return s.configStore.GetString(keyGitHubToken)
}

// Defaults returns default settings.
func (s *SettingsService) Defaults() domain.Settings {
	return domain.DefaultSettings()
}

// SettingKeys returns every recognised dot-key in display order.
func SettingKeys() []string {
	return []string{
		keyGitHubToken,
		keyIndexFile,
		keySearchLimit,
		keyScanInterval,
		keyProbeEnabled,
		keyProbeTimeout,
		keyProbeTTL,
		keyProbeConcurrency,
		keyProbeInterval,
	}
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetDuration(key)
	if val <= 0 {
		return defaultVal
	}
	return val
}
