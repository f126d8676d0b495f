package auth

import (
	"context"
	"os"

	"github.com/welshwandering/doctrine/internal/core/ports/driven"
)

// EnvToken is the environment variable consulted before the config file.
const EnvToken = "DOCTRINE_GITHUB_TOKEN"

// configTokenKey is the config key holding the stored token.
const configTokenKey = "github.token"

// Ensure PATProvider implements the TokenProvider interface.
var _ driven.TokenProvider = (*PATProvider)(nil)

// PATProvider provides static Personal Access Tokens for the GitHub
// connector. The DOCTRINE_GITHUB_TOKEN environment variable takes
// precedence over the github.token config key, so CI jobs can inject a
// token without touching the config file.
//
// The token is resolved on every call rather than cached, so a token
// rotated mid-session is picked up without restarting.
type PATProvider struct {
	config driven.ConfigStore
}

// NewPATProvider creates a token provider backed by the environment and
// the config store. config may be nil, in which case only the
// environment is consulted.
func NewPATProvider(config driven.ConfigStore) *PATProvider {
	return &PATProvider{config: config}
}

// GetToken returns the configured token, or empty when none is set.
// PATs don't expire, so no refresh logic is needed.
func (p *PATProvider) GetToken(_ context.Context) (string, error) {
	return p.resolve(), nil
}

// IsAuthenticated returns true if a token is available.
func (p *PATProvider) IsAuthenticated() bool {
	return p.resolve() != ""
}

func (p *PATProvider) resolve() string {
	if token := os.Getenv(EnvToken); token != "" {
		return token
	}
	if p.config != nil {
		return p.config.GetString(configTokenKey)
	}
	return ""
}
