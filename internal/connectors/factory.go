package connectors

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/welshwandering/doctrine/internal/connectors/filesystem"
	"github.com/welshwandering/doctrine/internal/connectors/github"
	"github.com/welshwandering/doctrine/internal/core/domain"
	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// Ensure Factory implements the interface.
var _ driven.ConnectorFactory = (*Factory)(nil)

// Factory creates connectors from source configuration. Builders are
// registered per connector type; token providers are registered
// separately so local connectors never see credentials.
type Factory struct {
	mu        sync.RWMutex
	builders  map[string]driven.ConnectorBuilder
	providers map[string]driven.TokenProvider
}

// NewFactory creates an empty factory.
func NewFactory() *Factory {
	return &Factory{
		builders:  make(map[string]driven.ConnectorBuilder),
		providers: make(map[string]driven.TokenProvider),
	}
}

// NewDefaultFactory creates a factory with every built-in connector
// registered. githubTokens supplies credentials for GitHub sources and
// may be nil for anonymous access.
func NewDefaultFactory(githubTokens driven.TokenProvider) *Factory {
	f := NewFactory()
	f.Register(domain.ConnectorFilesystem.String(), NewFilesystemConnector)
	f.Register(domain.ConnectorGitHub.String(), NewGitHubConnector)
	if githubTokens != nil {
		f.RegisterTokenProvider(domain.ConnectorGitHub.String(), githubTokens)
	}
	return f
}

// Create returns a Connector for the given source.
func (f *Factory) Create(_ context.Context, source domain.Source) (driven.Connector, error) {
	f.mu.RLock()
	builder, ok := f.builders[source.ConnectorType.String()]
	provider := f.providers[source.ConnectorType.String()]
	f.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: connector %q", domain.ErrUnsupportedType, source.ConnectorType)
	}
	return builder(source, provider)
}

// Register adds a connector builder for the given type.
func (f *Factory) Register(connectorType string, builder driven.ConnectorBuilder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.builders[connectorType] = builder
}

// RegisterTokenProvider sets the token provider handed to builders for
// the given connector type.
func (f *Factory) RegisterTokenProvider(connectorType string, provider driven.TokenProvider) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.providers[connectorType] = provider
}

// SupportedTypes returns all registered connector types, sorted.
func (f *Factory) SupportedTypes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	types := make([]string, 0, len(f.builders))
	for t := range f.builders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// NewFilesystemConnector builds a filesystem connector from a source.
// The token provider is ignored; local directories need no credentials.
func NewFilesystemConnector(source domain.Source, _ driven.TokenProvider) (driven.Connector, error) {
	root := source.ConfigValue(domain.ConfigKeyPath)
	if root == "" {
		return nil, fmt.Errorf("%w: filesystem source requires %q", domain.ErrInvalidInput, domain.ConfigKeyPath)
	}
	return filesystem.New(source.ID, root, filesystem.ParsePatterns(source.ConfigValue(domain.ConfigKeyPatterns))), nil
}

// NewGitHubConnector builds a GitHub connector from a source.
func NewGitHubConnector(source domain.Source, tokenProvider driven.TokenProvider) (driven.Connector, error) {
	cfg, err := github.ParseConfig(source)
	if err != nil {
		return nil, err
	}
	return github.New(source.ID, cfg, tokenProvider), nil
}
