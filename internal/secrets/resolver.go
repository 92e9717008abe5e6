package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	pkgsecrets "github.com/Checker-Finance/rentmanager-adapter/pkg/secrets"
)

// Resolver fetches a named secret, parses it into T and caches the result
// locally to avoid repeat Secrets Manager calls.
type Resolver[T any] struct {
	logger   *zap.Logger
	provider pkgsecrets.Provider
	cache    *pkgsecrets.Cache[T]
}

// NewResolver constructs a generic cached secret resolver.
func NewResolver[T any](logger *zap.Logger, provider pkgsecrets.Provider, cache *pkgsecrets.Cache[T]) *Resolver[T] {
	return &Resolver[T]{
		logger:   logger,
		provider: provider,
		cache:    cache,
	}
}

// Resolve fetches or caches T for the given secret name.
// parse extracts T from the raw secret map; it should validate required fields.
func (r *Resolver[T]) Resolve(ctx context.Context, secretName string, parse func(map[string]string) (T, error)) (T, error) {
	if cfg, ok := r.cache.Get(secretName); ok {
		return cfg, nil
	}

	secretMap, err := r.provider.GetSecret(ctx, secretName)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", secretName),
			zap.Error(err))
		var zero T
		return zero, fmt.Errorf("resolve secret %q: %w", secretName, err)
	}

	cfg, err := parse(secretMap)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("parse secret %q: %w", secretName, err)
	}

	r.cache.Put(secretName, cfg)

	r.logger.Info("aws.secret_resolved", zap.String("key", secretName))
	return cfg, nil
}
