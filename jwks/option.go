package jwks

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tradepost/marketauth/core"
)

// ============================================================================
// Provider Options
// ============================================================================

// ProviderOption is how options for the Provider are set up.
type ProviderOption func(*Provider) error

// WithDiscoveryURL sets the full .well-known/openid-configuration URL.
// This is a required option.
func WithDiscoveryURL(discoveryURL string) ProviderOption {
	return func(p *Provider) error {
		if err := checkHTTPURL(discoveryURL); err != nil {
			return fmt.Errorf("invalid discovery URL: %w", err)
		}
		p.discoveryURL = discoveryURL
		return nil
	}
}

// WithCustomJWKSURI makes the Provider fetch from jwksURI directly and skip
// the discovery request.
func WithCustomJWKSURI(jwksURI string) ProviderOption {
	return func(p *Provider) error {
		if err := checkHTTPURL(jwksURI); err != nil {
			return fmt.Errorf("invalid JWKS URI: %w", err)
		}
		p.jwksURI = jwksURI
		return nil
	}
}

// WithCustomClient sets the HTTP client used for discovery and JWKS requests.
// If not specified, a client with a 10s timeout is used.
func WithCustomClient(c *http.Client) ProviderOption {
	return func(p *Provider) error {
		if c == nil {
			return fmt.Errorf("HTTP client cannot be nil")
		}
		p.client = c
		return nil
	}
}

// WithHTTPTimeout bounds each outbound request made by the Provider.
func WithHTTPTimeout(timeout time.Duration) ProviderOption {
	return func(p *Provider) error {
		if timeout <= 0 {
			return fmt.Errorf("HTTP timeout must be positive")
		}
		client := *p.client
		client.Timeout = timeout
		p.client = &client
		return nil
	}
}

// WithLogger sets an optional logger for the Provider.
func WithLogger(logger core.Logger) ProviderOption {
	return func(p *Provider) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// ============================================================================
// CachingProvider Options
// ============================================================================

// CachingProviderOption is how options for the CachingProvider are set up.
type CachingProviderOption func(*CachingProvider) error

// WithCacheTTL sets how long a fetched key set lives in the shared cache.
// Defaults to one hour.
func WithCacheTTL(ttl time.Duration) CachingProviderOption {
	return func(p *CachingProvider) error {
		if ttl <= 0 {
			return fmt.Errorf("cache TTL must be positive")
		}
		p.ttl = ttl
		return nil
	}
}

// WithCacheKeyPrefix changes the prefix of the shared cache key.
func WithCacheKeyPrefix(prefix string) CachingProviderOption {
	return func(p *CachingProvider) error {
		if strings.TrimSpace(prefix) == "" {
			return fmt.Errorf("cache key prefix cannot be empty")
		}
		p.keyPrefix = prefix
		return nil
	}
}

// WithCacheLogger sets an optional logger for the CachingProvider.
func WithCacheLogger(logger core.Logger) CachingProviderOption {
	return func(p *CachingProvider) error {
		if logger == nil {
			return fmt.Errorf("logger cannot be nil")
		}
		p.logger = logger
		return nil
	}
}

// WithMetrics records cache lookups and origin fetches.
func WithMetrics(metrics core.Metrics) CachingProviderOption {
	return func(p *CachingProvider) error {
		if metrics == nil {
			return fmt.Errorf("metrics cannot be nil")
		}
		p.metrics = metrics
		return nil
	}
}
