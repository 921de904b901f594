/*
Package jwks loads the identity provider's signing keys.

Provider is the KeySource: it reads the discovery document once, at
construction, and fetches the JWKS from the advertised jwks_uri on demand.
CachingProvider is the KeyCache: it keeps the raw JWKS document in a shared
Cache (Redis in production, see cache/rediscache) under a key derived from
the discovery URL, with a one hour TTL by default.

	source, err := jwks.NewProvider(ctx,
	    jwks.WithDiscoveryURL("https://idp.example.com/realms/market/.well-known/openid-configuration"),
	)
	if err != nil {
	    return err // core.ErrAuthProviderUnavailable when discovery fails
	}

	keys, err := jwks.NewCachingProvider(source, jwks.NewMemoryCache())

KeySet reads the cache and only goes to the identity provider on a miss.
Refresh always goes to the identity provider and overwrites the cache entry;
the validator calls it once when a token names a kid the loaded set does not
contain.

Every transport failure, non-200 response or unparsable JWKS is returned as
core.ErrAuthProviderUnavailable. Nothing is retried here.
*/
package jwks
