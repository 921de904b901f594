package jwks

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/internal/oidc"
)

// maxJWKSBytes limits the JWKS response body; real key sets are a few KB.
const maxJWKSBytes = 1 << 20

// Source records where a KeySet was loaded from.
type Source int

const (
	SourceOrigin Source = iota + 1
	SourceCache
)

func (s Source) String() string {
	switch s {
	case SourceOrigin:
		return "origin"
	case SourceCache:
		return "cache"
	default:
		return "unknown"
	}
}

// KeySet is a parsed JWKS together with the document it was parsed from.
type KeySet struct {
	Set    jwk.Set
	Raw    json.RawMessage
	Source Source
}

// KeyInfo describes one key of a KeySet.
type KeyInfo struct {
	KeyID     string `json:"kid"`
	KeyType   string `json:"kty"`
	Algorithm string `json:"alg,omitempty"`
}

// Keys lists the keys of the set in document order.
func (ks *KeySet) Keys() []KeyInfo {
	if ks == nil || ks.Set == nil {
		return nil
	}
	infos := make([]KeyInfo, 0, ks.Set.Len())
	for i := 0; i < ks.Set.Len(); i++ {
		key, ok := ks.Set.Key(i)
		if !ok {
			continue
		}
		info := KeyInfo{KeyType: key.KeyType().String()}
		info.KeyID, _ = key.KeyID()
		if alg, ok := key.Algorithm(); ok {
			info.Algorithm = alg.String()
		}
		infos = append(infos, info)
	}
	return infos
}

// KeySource fetches the current key set from the identity provider.
type KeySource interface {
	Fetch(ctx context.Context) (*KeySet, error)
	// DiscoveryURL identifies the provider; it keys the shared cache entry.
	DiscoveryURL() string
}

// Provider is the HTTP KeySource. The discovery document is read once, in
// NewProvider, and the JWKS URI it names is fixed for the provider's lifetime.
type Provider struct {
	discoveryURL string
	jwksURI      string
	issuer       string
	client       *http.Client
	logger       core.Logger
}

// NewProvider builds a Provider and performs discovery synchronously.
//
// Required options:
//   - WithDiscoveryURL: full .well-known/openid-configuration URL
//
// Optional options:
//   - WithCustomJWKSURI: skip discovery and use this JWKS URI
//   - WithCustomClient / WithHTTPTimeout: HTTP client used for both requests
//   - WithLogger
//
// A discovery failure is returned as core.ErrAuthProviderUnavailable.
func NewProvider(ctx context.Context, opts ...ProviderOption) (*Provider, error) {
	p := &Provider{
		client: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if p.discoveryURL == "" {
		return nil, fmt.Errorf("discovery URL is required (use WithDiscoveryURL)")
	}

	if p.jwksURI != "" {
		return p, nil
	}

	endpoints, err := oidc.GetWellKnownEndpoints(ctx, p.client, p.discoveryURL)
	if err != nil {
		return nil, core.NewValidationError(
			core.ErrAuthProviderUnavailable,
			core.ErrorCodeDiscoveryFailed,
			"could not read identity provider discovery document",
			err,
		)
	}

	if err := checkHTTPURL(endpoints.JWKSURI); err != nil {
		return nil, core.NewValidationError(
			core.ErrAuthProviderUnavailable,
			core.ErrorCodeDiscoveryFailed,
			"discovery document has an unusable jwks_uri",
			err,
		)
	}

	p.jwksURI = endpoints.JWKSURI
	p.issuer = endpoints.Issuer

	if p.logger != nil {
		p.logger.Info("discovered JWKS endpoint",
			"discovery_url", p.discoveryURL,
			"jwks_uri", p.jwksURI,
			"issuer", p.issuer)
	}

	return p, nil
}

// DiscoveryURL returns the configured discovery URL.
func (p *Provider) DiscoveryURL() string { return p.discoveryURL }

// JWKSURI returns the JWKS endpoint in use.
func (p *Provider) JWKSURI() string { return p.jwksURI }

// Issuer returns the issuer advertised by the discovery document. It is empty
// when discovery was skipped with WithCustomJWKSURI.
func (p *Provider) Issuer() string { return p.issuer }

// Fetch downloads and parses the JWKS. Transport failures, non-200 responses
// and unparsable documents are all reported as core.ErrAuthProviderUnavailable.
func (p *Provider) Fetch(ctx context.Context) (*KeySet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.jwksURI, nil)
	if err != nil {
		return nil, core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSFetchFailed, "could not build JWKS request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSFetchFailed, "could not fetch JWKS", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, core.NewValidationError(
			core.ErrAuthProviderUnavailable,
			core.ErrorCodeJWKSFetchFailed,
			"could not fetch JWKS",
			fmt.Errorf("request returned status %d, expected 200", resp.StatusCode),
		)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSBytes))
	if err != nil {
		return nil, core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSFetchFailed, "could not read JWKS response", err)
	}

	set, err := jwk.Parse(body)
	if err != nil {
		return nil, core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSInvalid, "failed to parse JWKS", err)
	}

	if p.logger != nil {
		p.logger.Debug("fetched JWKS", "jwks_uri", p.jwksURI, "keys", set.Len())
	}

	return &KeySet{Set: set, Raw: body, Source: SourceOrigin}, nil
}

func checkHTTPURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%q is not an absolute http(s) URL", raw)
	}
	return nil
}
