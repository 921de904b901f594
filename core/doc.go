/*
Package core holds the transport-agnostic pieces shared by the token
validator, the JWKS provider and the HTTP and gRPC adapters.

	┌──────────────────────────────────────────┐
	│  Adapters (net/http, gin, echo, gRPC)    │
	└───────────────────┬──────────────────────┘
	                    ▼
	┌──────────────────────────────────────────┐
	│  core.Core: missing-token policy,        │
	│  outcome metrics, logging                │
	└───────────────────┬──────────────────────┘
	                    ▼
	┌──────────────────────────────────────────┐
	│  validator.Validator -> jwks.CachingProvider
	└──────────────────────────────────────────┘

# Errors

Every failure carries one of five kinds, tested with errors.Is:

	core.ErrTokenExpired
	core.ErrInvalidToken
	core.ErrAuthProviderUnavailable
	core.ErrUnexpectedAuthFailure
	core.ErrPermissionDenied

plus ErrTokenMissing for requests that carried no token at all. The concrete
type is *ValidationError, whose Code field names the precise cause
("jwks_key_not_found", "invalid_issuer", ...).

	claims, err := v.ValidateToken(ctx, token)
	switch {
	case errors.Is(err, core.ErrTokenExpired):
	    // ask the client to refresh
	case errors.Is(err, core.ErrAuthProviderUnavailable):
	    // 503
	}
*/
package core
