package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/adapters/driven/config/file"
	"github.com/welshwandering/doctrine/internal/core/domain"
)

func settingsFixture(t *testing.T) (*SettingsService, *file.ConfigStore) {
	t.Helper()

	store, err := file.NewConfigStore(t.TempDir())
	require.NoError(t, err)
	return NewSettingsService(store), store
}

func TestNewSettingsService(t *testing.T) {
	svc, _ := settingsFixture(t)
	require.NotNil(t, svc)
}

func TestSettingsService_Get_ReturnsDefaults(t *testing.T) {
	svc, _ := settingsFixture(t)

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Empty(t, settings.GitHubToken)
	assert.Equal(t, defaults.IndexFile, settings.IndexFile)
	assert.Equal(t, defaults.SearchLimit, settings.SearchLimit)
	assert.Equal(t, defaults.ScanInterval, settings.ScanInterval)
	assert.Equal(t, defaults.ProbeEnabled, settings.ProbeEnabled)
	assert.Equal(t, defaults.ProbeTimeout, settings.ProbeTimeout)
	assert.Equal(t, defaults.ProbeTTL, settings.ProbeTTL)
	assert.Equal(t, defaults.ProbeConcurrency, settings.ProbeConcurrency)
	assert.Equal(t, defaults.ProbeInterval, settings.ProbeInterval)
}

func TestSettingsService_Get_ReturnsStoredValues(t *testing.T) {
	svc, store := settingsFixture(t)
	require.NoError(t, store.Set("index.file", "INDEX.md"))
	require.NoError(t, store.Set("search.limit", int64(5)))
	require.NoError(t, store.Set("probe.enabled", true))
	require.NoError(t, store.Set("probe.timeout", "5s"))

	settings, err := svc.Get()
	require.NoError(t, err)

	assert.Equal(t, "INDEX.md", settings.IndexFile)
	assert.Equal(t, 5, settings.SearchLimit)
	assert.True(t, settings.ProbeEnabled)
	assert.Equal(t, 5*time.Second, settings.ProbeTimeout)
}

func TestSettingsService_Get_InvalidValuesReturnDefaults(t *testing.T) {
	svc, store := settingsFixture(t)
	require.NoError(t, store.Set("search.limit", int64(-3)))
	require.NoError(t, store.Set("scan.interval", "not-a-duration"))

	settings, err := svc.Get()
	require.NoError(t, err)

	defaults := domain.DefaultSettings()
	assert.Equal(t, defaults.SearchLimit, settings.SearchLimit)
	assert.Equal(t, defaults.ScanInterval, settings.ScanInterval)
}

func TestSettingsService_Save_RoundTrips(t *testing.T) {
	svc, _ := settingsFixture(t)

	want := &domain.Settings{
		GitHubToken:      "ghp_test",
		IndexFile:        "docs/INDEX.md",
		SearchLimit:      50,
		ScanInterval:     30 * time.Minute,
		ProbeEnabled:     true,
		ProbeTimeout:     5 * time.Second,
		ProbeTTL:         time.Hour,
		ProbeConcurrency: 4,
		ProbeInterval:    2 * time.Hour,
	}
	require.NoError(t, svc.Save(want))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestSettingsService_Save_KeepsStoredToken(t *testing.T) {
	svc, store := settingsFixture(t)
	require.NoError(t, store.Set("github.token", "ghp_keep"))

	settings := domain.DefaultSettings()
	require.NoError(t, svc.Save(&settings))

	got, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_keep", got.GitHubToken, "saving without a token leaves the stored one alone")
}

func TestSettingsService_Save_NilSettings(t *testing.T) {
	svc, _ := settingsFixture(t)
	err := svc.Save(nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestSettingsService_Set(t *testing.T) {
	svc, _ := settingsFixture(t)

	require.NoError(t, svc.Set("github.token", "ghp_set"))
	require.NoError(t, svc.Set("index.file", "INDEX.md"))
	require.NoError(t, svc.Set("search.limit", "10"))
	require.NoError(t, svc.Set("scan.interval", "45m"))
	require.NoError(t, svc.Set("probe.enabled", "true"))

	settings, err := svc.Get()
	require.NoError(t, err)
	assert.Equal(t, "ghp_set", settings.GitHubToken)
	assert.Equal(t, "INDEX.md", settings.IndexFile)
	assert.Equal(t, 10, settings.SearchLimit)
	assert.Equal(t, 45*time.Minute, settings.ScanInterval)
	assert.True(t, settings.ProbeEnabled)
}

func TestSettingsService_Set_InvalidValues(t *testing.T) {
	svc, _ := settingsFixture(t)

	tests := []struct {
		name  string
		key   string
		value string
	}{
		{name: "non-numeric limit", key: "search.limit", value: "many"},
		{name: "zero limit", key: "search.limit", value: "0"},
		{name: "negative duration", key: "probe.ttl", value: "-5s"},
		{name: "malformed duration", key: "scan.interval", value: "soon"},
		{name: "non-boolean", key: "probe.enabled", value: "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Set(tt.key, tt.value)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
		})
	}
}

func TestSettingsService_Set_UnknownKey(t *testing.T) {
	svc, _ := settingsFixture(t)

	err := svc.Set("search.mode", "hybrid")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "unknown setting")
}

func TestSettingsService_GitHubToken_EnvWins(t *testing.T) {
	t.Setenv(EnvGitHubToken, "ghp_env")

	svc, store := settingsFixture(t)
	require.NoError(t, store.Set("github.token", "ghp_stored"))

	assert.Equal(t, "ghp_env", svc.GitHubToken())
}

func TestSettingsService_GitHubToken_FallsBackToConfig(t *testing.T) {
	t.Setenv(EnvGitHubToken, "")

	svc, store := settingsFixture(t)
	require.NoError(t, store.Set("github.token", "ghp_stored"))

	assert.Equal(t, "ghp_stored", svc.GitHubToken())
}

func TestSettingsService_Defaults(t *testing.T) {
	svc := NewSettingsService(nil)
	assert.Equal(t, domain.DefaultSettings(), svc.Defaults())
}

func TestSettingsService_NilStore(t *testing.T) {
	t.Setenv(EnvGitHubToken, "ghp_env")
	svc := NewSettingsService(nil)

	_, err := svc.Get()
	assert.ErrorIs(t, err, domain.ErrNotImplemented)

	settings := domain.DefaultSettings()
	assert.ErrorIs(t, svc.Save(&settings), domain.ErrNotImplemented)
	assert.ErrorIs(t, svc.Set("index.file", "x"), domain.ErrNotImplemented)

	// The environment still answers without a store.
	assert.Equal(t, "ghp_env", svc.GitHubToken())
}
