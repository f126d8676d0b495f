package connectors

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

type staticTokenProvider struct {
	token string
}

func (p *staticTokenProvider) GetToken(_ context.Context) (string, error) {
	return p.token, nil
}

func (p *staticTokenProvider) IsAuthenticated() bool {
	return p.token != ""
}

func filesystemSource(t *testing.T) domain.Source {
	t.Helper()
	return domain.Source{
		ID:            "src-fs",
		Name:          "local-guides",
		ConnectorType: domain.ConnectorFilesystem,
		Config: map[domain.ConfigKey]string{
			domain.ConfigKeyPath: t.TempDir(),
		},
	}
}

func githubSource() domain.Source {
	return domain.Source{
		ID:            "src-gh",
		Name:          "org-guides",
		ConnectorType: domain.ConnectorGitHub,
		Config: map[domain.ConfigKey]string{
			domain.ConfigKeyOwner: "welshwandering",
			domain.ConfigKeyRepo:  "guides",
		},
	}
}

func TestFactory_Create_Filesystem(t *testing.T) {
	factory := NewDefaultFactory(nil)

	connector, err := factory.Create(context.Background(), filesystemSource(t))
	require.NoError(t, err)
	defer connector.Close()

	assert.Equal(t, "filesystem", connector.Type())
	assert.Equal(t, "src-fs", connector.SourceID())
}

func TestFactory_Create_GitHub(t *testing.T) {
	factory := NewDefaultFactory(&staticTokenProvider{token: "ghp_test"})

	connector, err := factory.Create(context.Background(), githubSource())
	require.NoError(t, err)
	defer connector.Close()

	assert.Equal(t, "github", connector.Type())
	assert.Equal(t, "src-gh", connector.SourceID())
}

func TestFactory_Create_UnsupportedType(t *testing.T) {
	factory := NewDefaultFactory(nil)

	source := domain.Source{
		ID:            "src-x",
		ConnectorType: domain.ConnectorType("gopher"),
	}

	_, err := factory.Create(context.Background(), source)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
	assert.Contains(t, err.Error(), "gopher")
}

func TestFactory_Create_FilesystemMissingPath(t *testing.T) {
	factory := NewDefaultFactory(nil)

	source := domain.Source{
		ID:            "src-fs",
		ConnectorType: domain.ConnectorFilesystem,
		Config:        map[domain.ConfigKey]string{},
	}

	_, err := factory.Create(context.Background(), source)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFactory_Create_GitHubMissingOwner(t *testing.T) {
	factory := NewDefaultFactory(nil)

	source := domain.Source{
		ID:            "src-gh",
		ConnectorType: domain.ConnectorGitHub,
		Config: map[domain.ConfigKey]string{
			domain.ConfigKeyRepo: "guides",
		},
	}

	_, err := factory.Create(context.Background(), source)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFactory_Create_GitHubWithoutTokenProvider(t *testing.T) {
	// Anonymous access is allowed; the connector falls back to
	// unauthenticated rate limits.
	factory := NewDefaultFactory(nil)

	connector, err := factory.Create(context.Background(), githubSource())
	require.NoError(t, err)
	defer connector.Close()

	assert.Equal(t, "github", connector.Type())
}

func TestFactory_SupportedTypes(t *testing.T) {
	factory := NewDefaultFactory(nil)

	assert.Equal(t, []string{"filesystem", "github"}, factory.SupportedTypes())
}

func TestFactory_SupportedTypes_Empty(t *testing.T) {
	factory := NewFactory()

	assert.Empty(t, factory.SupportedTypes())
}

func TestFactory_Register_Custom(t *testing.T) {
	factory := NewFactory()

	var gotProvider driven.TokenProvider
	factory.Register("custom", func(source domain.Source, provider driven.TokenProvider) (driven.Connector, error) {
		gotProvider = provider
		return nil, domain.ErrNotImplemented
	})

	wantProvider := &staticTokenProvider{token: "tok"}
	factory.RegisterTokenProvider("custom", wantProvider)

	source := domain.Source{ID: "src-c", ConnectorType: domain.ConnectorType("custom")}
	_, err := factory.Create(context.Background(), source)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
	assert.Same(t, wantProvider, gotProvider)
}

func TestParsePatternsHelper(t *testing.T) {
	factory := NewDefaultFactory(nil)

	source := filesystemSource(t)
	source.Config[domain.ConfigKeyPatterns] = "*.md, *.mdx ,"

	connector, err := factory.Create(context.Background(), source)
	require.NoError(t, err)
	defer connector.Close()

	require.NoError(t, connector.Validate(context.Background()))
}
