package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/jwks"
)

// resolveKey finds the verification key for token.
//
// Lookup order is the in-process index, then the KeyProvider (cache, then
// identity provider). The index is re-read through the KeyProvider once it
// is older than maxAge. A kid missing from the index is looked up in the
// cache before a Refresh, and a set that came straight from the identity
// provider during this call is never refreshed, so one lookup makes at most
// one origin fetch.
func (v *Validator) resolveKey(ctx context.Context, span trace.Span, token *jwt.Token) (any, error) {
	kid, _ := token.Header["kid"].(string)
	alg := SignatureAlgorithm(token.Method.Alg())
	span.SetAttributes(
		attribute.String("jwt.kid", kid),
		attribute.String("jwt.alg", string(alg)),
	)

	if kid == "" {
		return nil, core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeTokenMalformed, "token header has no kid", nil)
	}

	reloaded := false
	ks := v.index.Load()
	if ks == nil || time.Since(ks.loadedAt) >= v.maxAge {
		loaded, err := v.loadKeySet(ctx, v.keys.KeySet)
		if err != nil {
			return nil, err
		}
		ks, reloaded = loaded, true
	}

	key, found := ks.Set.LookupKeyID(kid)
	if !found && !reloaded {
		loaded, err := v.loadKeySet(ctx, v.keys.KeySet)
		if err != nil {
			return nil, err
		}
		ks = loaded
		key, found = ks.Set.LookupKeyID(kid)
	}

	if !found && ks.Source != jwks.SourceOrigin {
		if v.logger != nil {
			v.logger.Info("signing key not in loaded key set, refreshing", "kid", kid, "source", ks.Source.String())
		}
		span.AddEvent("jwks refresh")

		refreshed, err := v.loadKeySet(ctx, v.keys.Refresh)
		if err != nil {
			return nil, err
		}
		ks = refreshed
		key, found = ks.Set.LookupKeyID(kid)
	}

	if !found {
		return nil, core.NewValidationError(
			core.ErrInvalidToken,
			core.ErrorCodeJWKSKeyNotFound,
			fmt.Sprintf("signing key %q not found in JWKS", kid),
			nil,
		)
	}
	span.SetAttributes(attribute.String("jwks.source", ks.Source.String()))

	if err := checkKeyMatchesAlgorithm(key, alg); err != nil {
		return nil, err
	}

	var rawKey any
	if err := jwk.Export(key, &rawKey); err != nil {
		return nil, core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeJWKSInvalid, "failed to export signing key", err)
	}

	if v.logger != nil {
		v.logger.Debug("resolved signing key", "kid", kid, "alg", string(alg), "source", ks.Source.String())
	}

	return rawKey, nil
}

// loadKeySet calls load and makes its result the index.
func (v *Validator) loadKeySet(ctx context.Context, load func(context.Context) (*jwks.KeySet, error)) (*loadedKeySet, error) {
	set, err := load(ctx)
	if err != nil {
		return nil, keyProviderError(err)
	}
	loaded := &loadedKeySet{KeySet: set, loadedAt: time.Now()}
	v.index.Store(loaded)
	return loaded, nil
}

// checkKeyMatchesAlgorithm rejects tokens whose declared algorithm cannot be
// used with the key their kid names.
func checkKeyMatchesAlgorithm(key jwk.Key, alg SignatureAlgorithm) error {
	want, ok := keyTypes[alg]
	if !ok {
		return core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidAlgorithm,
			fmt.Sprintf("unsupported signature algorithm %q", alg), nil)
	}

	if got := key.KeyType().String(); got != want {
		return core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidAlgorithm,
			fmt.Sprintf("algorithm %s cannot be used with a %s key", alg, got), nil)
	}

	if keyAlg, ok := key.Algorithm(); ok && keyAlg.String() != string(alg) {
		return core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidAlgorithm,
			fmt.Sprintf("key is published for %s, token uses %s", keyAlg.String(), alg), nil)
	}

	return nil
}

// keyProviderError keeps classified provider failures and reports anything
// else as unexpected.
func keyProviderError(err error) error {
	if core.Code(err) != "" {
		return err
	}
	return core.NewValidationError(core.ErrUnexpectedAuthFailure, core.ErrorCodeUnexpected, "could not load signing keys", err)
}
