package app

import (
	"context"
	"fmt"

	"github.com/tradepost/marketauth"
	"github.com/tradepost/marketauth/cache/rediscache"
	"github.com/tradepost/marketauth/config"
	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/jwks"
	"github.com/tradepost/marketauth/validator"
)

// stack is the wired validation pipeline shared by every subcommand.
type stack struct {
	source    *jwks.Provider
	keys      *jwks.CachingProvider
	validator *validator.Validator
	issuer    string
	close     func() error
}

func buildStack(ctx context.Context, cfg *config.Config, logger marketauth.Logger, metrics core.Metrics) (*stack, error) {
	providerOpts := []jwks.ProviderOption{
		jwks.WithDiscoveryURL(cfg.IDP.DiscoveryURL),
		jwks.WithLogger(logger),
	}
	if cfg.IDP.HTTPTimeout > 0 {
		providerOpts = append(providerOpts, jwks.WithHTTPTimeout(cfg.IDP.HTTPTimeout))
	}

	source, err := jwks.NewProvider(ctx, providerOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create key source: %w", err)
	}

	cache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		return nil, err
	}

	cachingOpts := []jwks.CachingProviderOption{
		jwks.WithCacheKeyPrefix(cfg.Cache.KeyPrefix),
		jwks.WithCacheLogger(logger),
		jwks.WithMetrics(metrics),
	}
	validatorOpts := []validator.Option{
		validator.WithAllowedClockSkew(cfg.IDP.ClockSkew),
		validator.WithLogger(logger),
	}
	if cfg.Cache.TTL > 0 {
		cachingOpts = append(cachingOpts, jwks.WithCacheTTL(cfg.Cache.TTL))
		validatorOpts = append(validatorOpts, validator.WithKeySetMaxAge(cfg.Cache.TTL))
	}

	keys, err := jwks.NewCachingProvider(source, cache, cachingOpts...)
	if err != nil {
		_ = closeCache()
		return nil, fmt.Errorf("failed to create key cache: %w", err)
	}

	issuer := cfg.IDP.Issuer
	if issuer == "" {
		issuer = source.Issuer()
	}

	v, err := validator.New(keys, append(validatorOpts, validator.WithIssuer(issuer))...)
	if err != nil {
		_ = closeCache()
		return nil, fmt.Errorf("failed to create validator: %w", err)
	}

	return &stack{
		source:    source,
		keys:      keys,
		validator: v,
		issuer:    issuer,
		close:     closeCache,
	}, nil
}

func newCache(ctx context.Context, cfg *config.Config) (jwks.Cache, func() error, error) {
	switch cfg.Cache.Backend {
	case config.BackendRedis:
		c, err := rediscache.New(ctx, rediscache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		return c, c.Close, nil
	default:
		return jwks.NewMemoryCache(), func() error { return nil }, nil
	}
}
