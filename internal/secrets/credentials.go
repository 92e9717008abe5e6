package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Checker-Finance/rentmanager-adapter/internal/rentmanager"
	pkgsecrets "github.com/Checker-Finance/rentmanager-adapter/pkg/secrets"
)

// CredentialResolver resolves Rent Manager credentials from AWS Secrets Manager.
//
// Secret JSON format: {"username": "...", "password": "...", "base_url": "https://acme.api.rentmanager.com"}
// base_url is optional and falls back to the configured RM_BASE_URL.
type CredentialResolver struct {
	inner *Resolver[rentmanager.Credentials]
}

// NewCredentialResolver constructs a Rent Manager credential resolver.
func NewCredentialResolver(
	logger *zap.Logger,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[rentmanager.Credentials],
) *CredentialResolver {
	return &CredentialResolver{inner: NewResolver(logger, provider, cache)}
}

// Resolve fetches or caches the credentials stored under secretName.
func (r *CredentialResolver) Resolve(ctx context.Context, secretName string) (rentmanager.Credentials, error) {
	return r.inner.Resolve(ctx, secretName, parseCredentials)
}

// parseCredentials extracts Credentials from the raw AWS secret map.
func parseCredentials(m map[string]string) (rentmanager.Credentials, error) {
	creds := rentmanager.Credentials{
		Username: m["username"],
		Password: m["password"],
		BaseURL:  m["base_url"],
	}
	if creds.Username == "" {
		return rentmanager.Credentials{}, fmt.Errorf("missing required field 'username'")
	}
	if creds.Password == "" {
		return rentmanager.Credentials{}, fmt.Errorf("missing required field 'password'")
	}
	return creds, nil
}
