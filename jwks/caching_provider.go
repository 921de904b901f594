package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/core"
)

const (
	tracerName = "github.com/tradepost/marketauth/jwks"

	// DefaultCacheTTL is how long a fetched key set stays in the shared cache.
	DefaultCacheTTL = time.Hour

	// DefaultCacheKeyPrefix is prepended to the discovery URL to form the
	// cache key.
	DefaultCacheKeyPrefix = "marketauth:jwks:"
)

// CachingProvider serves key sets cache-first and writes every origin fetch
// back to the shared Cache.
//
// Concurrent callers that miss the cache at the same time each fetch and each
// write; the last write wins. The stored document is identical for a given
// discovery URL, so no locking is done.
type CachingProvider struct {
	source    KeySource
	cache     Cache
	ttl       time.Duration
	keyPrefix string
	logger    core.Logger
	metrics   core.Metrics
	tracer    trace.Tracer
}

// NewCachingProvider wires a KeySource to a Cache.
//
//	source, err := jwks.NewProvider(ctx, jwks.WithDiscoveryURL(discoveryURL))
//	...
//	keys, err := jwks.NewCachingProvider(source, rediscache.New(client),
//	    jwks.WithCacheTTL(time.Hour),
//	)
func NewCachingProvider(source KeySource, cache Cache, opts ...CachingProviderOption) (*CachingProvider, error) {
	if source == nil {
		return nil, fmt.Errorf("key source is required")
	}
	if cache == nil {
		return nil, fmt.Errorf("cache is required")
	}

	p := &CachingProvider{
		source:    source,
		cache:     cache,
		ttl:       DefaultCacheTTL,
		keyPrefix: DefaultCacheKeyPrefix,
		metrics:   core.NoopMetrics{},
		tracer:    otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return p, nil
}

// CacheKey is the shared cache entry the key set is stored under.
func (p *CachingProvider) CacheKey() string {
	return p.keyPrefix + p.source.DiscoveryURL()
}

// KeySet returns the cached key set, falling back to Refresh on a miss.
//
// A cache read error or an entry that no longer parses is logged and treated
// as a miss.
func (p *CachingProvider) KeySet(ctx context.Context) (*KeySet, error) {
	key := p.CacheKey()

	var raw json.RawMessage
	found, err := p.cache.GetJSON(ctx, key, &raw)
	switch {
	case err != nil:
		p.metrics.IncCounter(core.MetricJWKSCacheLookups, map[string]string{"result": "error"})
		if p.logger != nil {
			p.logger.Warn("JWKS cache read failed, fetching from identity provider", "key", key, "error", err)
		}
	case found:
		set, parseErr := jwk.Parse(raw)
		if parseErr == nil {
			p.metrics.IncCounter(core.MetricJWKSCacheLookups, map[string]string{"result": "hit"})
			if p.logger != nil {
				p.logger.Debug("JWKS cache hit", "key", key, "keys", set.Len())
			}
			return &KeySet{Set: set, Raw: raw, Source: SourceCache}, nil
		}
		p.metrics.IncCounter(core.MetricJWKSCacheLookups, map[string]string{"result": "corrupt"})
		if p.logger != nil {
			p.logger.Warn("cached JWKS could not be parsed, fetching from identity provider", "key", key, "error", parseErr)
		}
	default:
		p.metrics.IncCounter(core.MetricJWKSCacheLookups, map[string]string{"result": "miss"})
		if p.logger != nil {
			p.logger.Debug("JWKS cache miss", "key", key)
		}
	}

	return p.Refresh(ctx)
}

// Refresh fetches the key set from the KeySource and overwrites the cache
// entry. Fetch errors are returned as-is; a failed cache write is logged and
// the fetched set is still returned.
func (p *CachingProvider) Refresh(ctx context.Context) (*KeySet, error) {
	ctx, span := p.tracer.Start(ctx, "jwks.Refresh")
	defer span.End()

	ks, err := p.source.Fetch(ctx)
	if err != nil {
		p.metrics.IncCounter(core.MetricJWKSFetches, map[string]string{"result": "error"})
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if p.logger != nil {
			p.logger.Error("JWKS fetch failed", "error", err)
		}
		return nil, err
	}
	p.metrics.IncCounter(core.MetricJWKSFetches, map[string]string{"result": "ok"})
	span.SetAttributes(attribute.Int("jwks.keys", ks.Set.Len()))

	key := p.CacheKey()
	if err := p.cache.SetJSON(ctx, key, ks.Raw, p.ttl); err != nil {
		span.AddEvent("cache write failed")
		if p.logger != nil {
			p.logger.Warn("JWKS cache write failed", "key", key, "error", err)
		}
	}

	return ks, nil
}
