package driven

import "context"

// TokenProvider provides access tokens for authenticated API calls.
// The GitHub connector uses it to resolve a personal access token from
// the environment or the config file at call time, so a token rotated
// mid-session is picked up without restarting.
type TokenProvider interface {
	// GetToken returns a valid access token.
	// Returns empty string for no-auth connectors.
	GetToken(ctx context.Context) (string, error)

	// IsAuthenticated returns true if a token is available.
	// Always true for no-auth connectors (NullTokenProvider).
	IsAuthenticated() bool
}
