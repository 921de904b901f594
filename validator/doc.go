/*
Package validator verifies marketplace bearer tokens against the identity
provider's rotating signing keys.

A Validator takes its keys from a KeyProvider, normally a
*jwks.CachingProvider backed by a shared cache. Keys are resolved by the
token's kid in this order:

 1. the key set this Validator loaded last
 2. KeyProvider.KeySet (shared cache, then the identity provider)
 3. one KeyProvider.Refresh when the kid is missing

A kid that is still missing after the refresh is an invalid token, not an
outage. A set that was fetched from the identity provider earlier in the same
call is never refreshed a second time.

# Checks

  - the signature, using the algorithm the token declares
  - the algorithm is allowed and matches the key's kty (and alg, when published)
  - exp is present and in the future, within WithAllowedClockSkew
  - iss equals WithIssuer
  - nbf and iat, when present

aud is deliberately not checked. Any token the configured issuer minted is
accepted regardless of its audience.

Tokens are rejected before parsing when they are empty, larger than 1MB or
have more than two dots.

# Basic Usage

	source, err := jwks.NewProvider(ctx,
	    jwks.WithDiscoveryURL("https://idp.example.com/realms/market/.well-known/openid-configuration"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	keys, err := jwks.NewCachingProvider(source, rediscache.NewFromClient(rdb))
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(keys,
	    validator.WithIssuer("https://idp.example.com/realms/market"),
	    validator.WithAllowedClockSkew(30*time.Second),
	)
	if err != nil {
	    log.Fatal(err)
	}

	claims, err := v.ValidateToken(ctx, tokenString)

# Errors

Every error from ValidateToken is a *core.ValidationError whose kind is one of:

  - core.ErrTokenExpired: exp has passed
  - core.ErrInvalidToken: malformed, bad signature, wrong issuer, unknown kid
  - core.ErrAuthProviderUnavailable: discovery or JWKS could not be fetched
  - core.ErrUnexpectedAuthFailure: anything else, including panics

	switch {
	case errors.Is(err, core.ErrTokenExpired):
	    // ask the client to refresh its token
	case errors.Is(err, core.ErrAuthProviderUnavailable):
	    // 503
	}

# HMAC

HS256, HS384 and HS512 are disabled unless listed in WithAlgorithms, and
then only verify against "oct" keys, so a published RSA key can never be
used as an HMAC secret.

# Thread Safety

A Validator is safe for concurrent use. The loaded key set is swapped
atomically; concurrent refreshes may each reach the identity provider.
*/
package validator
