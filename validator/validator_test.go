package validator

import (
	"context"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/jwks"
)

const issuer = "https://idp.example.com/realms/market"

var (
	rsaKey     *rsa.PrivateKey
	rotatedKey *rsa.PrivateKey
	ecKey      *ecdsa.PrivateKey
	edKey      ed25519.PrivateKey
)

func init() {
	var err error
	if rsaKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
		panic(err)
	}
	if rotatedKey, err = rsa.GenerateKey(rand.Reader, 2048); err != nil {
		panic(err)
	}
	if ecKey, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader); err != nil {
		panic(err)
	}
	if _, edKey, err = ed25519.GenerateKey(rand.Reader); err != nil {
		panic(err)
	}
}

func publicJWK(t *testing.T, pub any, kid string, alg jwa.KeyAlgorithm) jwk.Key {
	t.Helper()

	key, err := jwk.Import(pub)
	require.NoError(t, err)
	require.NoError(t, key.Set(jwk.KeyIDKey, kid))
	if alg != nil {
		require.NoError(t, key.Set(jwk.AlgorithmKey, alg))
	}
	return key
}

func keySet(t *testing.T, keys ...jwk.Key) *jwks.KeySet {
	t.Helper()

	set := jwk.NewSet()
	for _, k := range keys {
		require.NoError(t, set.AddKey(k))
	}
	raw, err := json.Marshal(set)
	require.NoError(t, err)
	return &jwks.KeySet{Set: set, Raw: raw, Source: jwks.SourceCache}
}

func signToken(t *testing.T, method jwt.SigningMethod, key any, kid string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(method, claims)
	if kid != "" {
		token.Header["kid"] = kid
	}
	signed, err := token.SignedString(key)
	require.NoError(t, err)
	return signed
}

func validClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":     "u1",
		"iss":     issuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
		"sellers": "a,b",
	}
}

// stubKeys is a KeyProvider whose responses are set per test.
type stubKeys struct {
	mu           sync.Mutex
	keySetCalls  int
	refreshCalls int
	keySet       func() (*jwks.KeySet, error)
	refresh      func() (*jwks.KeySet, error)
}

func (s *stubKeys) KeySet(context.Context) (*jwks.KeySet, error) {
	s.mu.Lock()
	s.keySetCalls++
	s.mu.Unlock()
	return s.keySet()
}

func (s *stubKeys) Refresh(context.Context) (*jwks.KeySet, error) {
	s.mu.Lock()
	s.refreshCalls++
	s.mu.Unlock()
	if s.refresh == nil {
		return s.keySet()
	}
	return s.refresh()
}

func staticKeys(ks *jwks.KeySet) *stubKeys {
	return &stubKeys{keySet: func() (*jwks.KeySet, error) { return ks, nil }}
}

func newTestValidator(t *testing.T, keys KeyProvider, opts ...Option) *Validator {
	t.Helper()

	v, err := New(keys, append([]Option{WithIssuer(issuer)}, opts...)...)
	require.NoError(t, err)
	return v
}

func TestValidator_ValidateToken(t *testing.T) {
	rsaJWK := publicJWK(t, &rsaKey.PublicKey, "rsa-1", jwa.RS256())
	ecJWK := publicJWK(t, &ecKey.PublicKey, "ec-1", nil)
	edJWK := publicJWK(t, edKey.Public(), "ed-1", nil)

	t.Run("it returns the claims of a valid token unmodified", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		claims["realm_access"] = map[string]any{"roles": []any{"realm-admin"}}

		got, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		require.NoError(t, err)

		assert.Equal(t, "u1", got["sub"])
		assert.Equal(t, issuer, got["iss"])
		assert.Equal(t, "a,b", got["sellers"], "sellers must not be normalized here")
		assert.Equal(t, map[string]any{"roles": []any{"realm-admin"}}, got["realm_access"])
	})

	t.Run("it uses the algorithm the token declares", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK, ecJWK, edJWK)))

		for name, token := range map[string]string{
			"RS256": signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", validClaims()),
			"ES256": signToken(t, jwt.SigningMethodES256, ecKey, "ec-1", validClaims()),
			"EdDSA": signToken(t, jwt.SigningMethodEdDSA, edKey, "ed-1", validClaims()),
		} {
			_, err := v.ValidateToken(context.Background(), token)
			assert.NoError(t, err, name)
		}
	})

	t.Run("an expired token is TokenExpired and never InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrTokenExpired)
		assert.NotErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeTokenExpired, core.Code(err))
	})

	t.Run("an expired token from the wrong issuer is still TokenExpired", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		claims["exp"] = time.Now().Add(-time.Minute).Unix()
		claims["iss"] = "https://evil.example.com"

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		assert.ErrorIs(t, err, core.ErrTokenExpired)
	})

	t.Run("clock skew extends exp", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)), WithAllowedClockSkew(time.Minute))
		claims := validClaims()
		claims["exp"] = time.Now().Add(-10 * time.Second).Unix()

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		assert.NoError(t, err)
	})

	t.Run("a token from another issuer is InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		claims["iss"] = "https://evil.example.com"

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidIssuer, core.Code(err))
	})

	t.Run("the audience claim is not checked", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		claims["aud"] = []string{"some-other-client"}

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		assert.NoError(t, err)
	})

	t.Run("a token without exp is InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		claims := validClaims()
		delete(claims, "exp")

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", claims))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidClaims, core.Code(err))
	})

	t.Run("a tampered signature is InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		token := signToken(t, jwt.SigningMethodRS256, rotatedKey, "rsa-1", validClaims())

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidSignature, core.Code(err))
	})

	t.Run("malformed tokens are InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))

		for _, token := range []string{"", "not-a-jwt", "a.b.c", "a.b.c.d", strings.Repeat("x", maxTokenBytes+1)} {
			_, err := v.ValidateToken(context.Background(), token)
			assert.ErrorIs(t, err, core.ErrInvalidToken, token)
			assert.Equal(t, core.ErrorCodeTokenMalformed, core.Code(err))
		}
	})

	t.Run("a token without kid is InvalidToken", func(t *testing.T) {
		keys := staticKeys(keySet(t, rsaJWK))
		v := newTestValidator(t, keys)

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeTokenMalformed, core.Code(err))
		assert.Equal(t, 0, keys.keySetCalls)
	})

	t.Run("alg none is rejected", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		token := signToken(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, "rsa-1", validClaims())

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("HMAC is rejected unless enabled", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		token := signToken(t, jwt.SigningMethodHS256, []byte("secret"), "rsa-1", validClaims())

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("HMAC verifies against oct keys when enabled", func(t *testing.T) {
		secret := []byte("0123456789abcdef0123456789abcdef")
		octJWK := publicJWK(t, secret, "hs-1", nil)
		v := newTestValidator(t, staticKeys(keySet(t, octJWK, rsaJWK)), WithAlgorithms(HS256, RS256))

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodHS256, secret, "hs-1", validClaims()))
		assert.NoError(t, err)

		// The public RSA key must never be usable as an HMAC secret.
		publicJSON, err := json.Marshal(rsaJWK)
		require.NoError(t, err)
		_, err = v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodHS256, publicJSON, "rsa-1", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidAlgorithm, core.Code(err))
	})

	t.Run("an algorithm that does not match the key type is InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK, ecJWK)))

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodES256, ecKey, "rsa-1", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidAlgorithm, core.Code(err))
	})

	t.Run("an algorithm that does not match the key's published alg is InvalidToken", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodPS256, rsaKey, "rsa-1", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeInvalidAlgorithm, core.Code(err))
	})

	t.Run("an unknown kid refreshes exactly once and then fails with InvalidToken", func(t *testing.T) {
		keys := staticKeys(keySet(t, rsaJWK))
		v := newTestValidator(t, keys)

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rotatedKey, "unknown", validClaims()))
		require.Error(t, err)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.NotErrorIs(t, err, core.ErrAuthProviderUnavailable)
		assert.Equal(t, core.ErrorCodeJWKSKeyNotFound, core.Code(err))
		assert.Equal(t, 1, keys.keySetCalls)
		assert.Equal(t, 1, keys.refreshCalls)
	})

	t.Run("a rotated key is picked up by the refresh", func(t *testing.T) {
		rotatedJWK := publicJWK(t, &rotatedKey.PublicKey, "rsa-2", jwa.RS256())
		keys := &stubKeys{
			keySet:  func() (*jwks.KeySet, error) { return keySet(t, rsaJWK), nil },
			refresh: func() (*jwks.KeySet, error) { return keySet(t, rsaJWK, rotatedJWK), nil },
		}
		v := newTestValidator(t, keys)

		token := signToken(t, jwt.SigningMethodRS256, rotatedKey, "rsa-2", validClaims())
		_, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		_, err = v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, 1, keys.keySetCalls)
		assert.Equal(t, 1, keys.refreshCalls, "the refreshed index must serve the second call")
	})

	t.Run("a set fetched from the identity provider during the call is not refreshed again", func(t *testing.T) {
		ks := keySet(t, rsaJWK)
		ks.Source = jwks.SourceOrigin
		keys := staticKeys(ks)
		v := newTestValidator(t, keys)

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rotatedKey, "unknown", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, 0, keys.refreshCalls)
	})

	t.Run("a provider outage during refresh is AuthProviderUnavailable", func(t *testing.T) {
		keys := &stubKeys{
			keySet: func() (*jwks.KeySet, error) { return keySet(t, rsaJWK), nil },
			refresh: func() (*jwks.KeySet, error) {
				return nil, core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSFetchFailed, "could not fetch JWKS", nil)
			},
		}
		v := newTestValidator(t, keys)

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rotatedKey, "unknown", validClaims()))
		assert.ErrorIs(t, err, core.ErrAuthProviderUnavailable)
		assert.NotErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("unclassified provider errors are UnexpectedAuthFailure", func(t *testing.T) {
		keys := &stubKeys{keySet: func() (*jwks.KeySet, error) { return nil, fmt.Errorf("boom") }}
		v := newTestValidator(t, keys)

		_, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", validClaims()))
		assert.ErrorIs(t, err, core.ErrUnexpectedAuthFailure)
	})

	t.Run("a panic during verification is UnexpectedAuthFailure, never success", func(t *testing.T) {
		keys := &stubKeys{keySet: func() (*jwks.KeySet, error) { panic("corrupted key index") }}
		v := newTestValidator(t, keys)

		claims, err := v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", validClaims()))
		assert.Nil(t, claims)
		assert.ErrorIs(t, err, core.ErrUnexpectedAuthFailure)
		assert.Contains(t, err.Error(), "corrupted key index")
	})

	t.Run("it is safe for concurrent use", func(t *testing.T) {
		v := newTestValidator(t, staticKeys(keySet(t, rsaJWK)))
		token := signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", validClaims())

		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := v.ValidateToken(context.Background(), token)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()
	})
}

// idp serves discovery and JWKS documents and counts JWKS requests.
type idp struct {
	*httptest.Server
	jwksHits   atomic.Int32
	jwksStatus atomic.Int32
	jwks       atomic.Value
}

func newIDP(t *testing.T, ks *jwks.KeySet) *idp {
	t.Helper()

	s := &idp{}
	s.jwksStatus.Store(http.StatusOK)
	s.jwks.Store([]byte(ks.Raw))

	mux := http.NewServeMux()
	mux.HandleFunc("/.well-known/openid-configuration", func(w http.ResponseWriter, r *http.Request) {
		_, _ = fmt.Fprintf(w, `{"issuer":%q,"jwks_uri":%q}`, issuer, s.URL+"/certs")
	})
	mux.HandleFunc("/certs", func(w http.ResponseWriter, r *http.Request) {
		s.jwksHits.Add(1)
		if status := int(s.jwksStatus.Load()); status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		_, _ = w.Write(s.jwks.Load().([]byte))
	})
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

type countingCache struct {
	jwks.Cache
	sets atomic.Int32
}

func (c *countingCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	c.sets.Add(1)
	return c.Cache.SetJSON(ctx, key, value, ttl)
}

func newCachedValidator(t *testing.T, server *idp, cache jwks.Cache) *Validator {
	t.Helper()

	source, err := jwks.NewProvider(context.Background(), jwks.WithDiscoveryURL(server.URL+"/.well-known/openid-configuration"))
	require.NoError(t, err)

	keys, err := jwks.NewCachingProvider(source, cache)
	require.NoError(t, err)

	return newTestValidator(t, keys)
}

func TestValidator_WithCachingProvider(t *testing.T) {
	rsaJWK := publicJWK(t, &rsaKey.PublicKey, "rsa-1", jwa.RS256())
	token := signToken(t, jwt.SigningMethodRS256, rsaKey, "rsa-1", validClaims())

	t.Run("a cache miss fetches once and writes once, the next validation makes no fetch", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		cache := &countingCache{Cache: jwks.NewMemoryCache()}
		v := newCachedValidator(t, server, cache)

		_, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.EqualValues(t, 1, server.jwksHits.Load())
		assert.EqualValues(t, 1, cache.sets.Load())

		_, err = v.ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.EqualValues(t, 1, server.jwksHits.Load())
		assert.EqualValues(t, 1, cache.sets.Load())
	})

	t.Run("a second instance is served from the shared cache", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		shared := jwks.NewMemoryCache()

		_, err := newCachedValidator(t, server, shared).ValidateToken(context.Background(), token)
		require.NoError(t, err)

		_, err = newCachedValidator(t, server, shared).ValidateToken(context.Background(), token)
		require.NoError(t, err)
		assert.EqualValues(t, 1, server.jwksHits.Load())
	})

	t.Run("a kid unknown even after refresh is InvalidToken after one refresh", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		v := newCachedValidator(t, server, jwks.NewMemoryCache())

		_, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		_, err = v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rotatedKey, "rsa-9", validClaims()))
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.NotErrorIs(t, err, core.ErrAuthProviderUnavailable)
		assert.EqualValues(t, 2, server.jwksHits.Load(), "exactly one refresh")
	})

	t.Run("a JWKS 503 on a cache miss is AuthProviderUnavailable", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		v := newCachedValidator(t, server, jwks.NewMemoryCache())
		server.jwksStatus.Store(http.StatusServiceUnavailable)

		_, err := v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrAuthProviderUnavailable)
		assert.NotErrorIs(t, err, core.ErrInvalidToken)
	})

	t.Run("a JWKS 503 during a rotation refresh is AuthProviderUnavailable", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		v := newCachedValidator(t, server, jwks.NewMemoryCache())

		_, err := v.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		server.jwksStatus.Store(http.StatusServiceUnavailable)
		_, err = v.ValidateToken(context.Background(), signToken(t, jwt.SigningMethodRS256, rotatedKey, "rsa-2", validClaims()))
		assert.ErrorIs(t, err, core.ErrAuthProviderUnavailable)

		_, err = v.ValidateToken(context.Background(), token)
		assert.NoError(t, err, "known keys keep working while the provider is down")
	})
	t.Run("a key removed at the identity provider stops verifying once the cached set expires", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		source, err := jwks.NewProvider(context.Background(), jwks.WithDiscoveryURL(server.URL+"/.well-known/openid-configuration"))
		require.NoError(t, err)
		keys, err := jwks.NewCachingProvider(source, jwks.NewMemoryCache(), jwks.WithCacheTTL(50*time.Millisecond))
		require.NoError(t, err)
		v := newTestValidator(t, keys, WithKeySetMaxAge(50*time.Millisecond))

		_, err = v.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		rotatedJWK := publicJWK(t, &rotatedKey.PublicKey, "rsa-2", jwa.RS256())
		server.jwks.Store([]byte(keySet(t, rotatedJWK).Raw))
		time.Sleep(100 * time.Millisecond)

		_, err = v.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, core.ErrInvalidToken)
		assert.Equal(t, core.ErrorCodeJWKSKeyNotFound, core.Code(err))
		assert.EqualValues(t, 2, server.jwksHits.Load(), "the expired set is fetched again, with no extra refresh")
	})

	t.Run("a rotated set another instance wrote to the shared cache is used without an origin fetch", func(t *testing.T) {
		server := newIDP(t, keySet(t, rsaJWK))
		shared := jwks.NewMemoryCache()
		first := newCachedValidator(t, server, shared)

		_, err := first.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		rotatedJWK := publicJWK(t, &rotatedKey.PublicKey, "rsa-2", jwa.RS256())
		server.jwks.Store([]byte(keySet(t, rsaJWK, rotatedJWK).Raw))
		rotatedToken := signToken(t, jwt.SigningMethodRS256, rotatedKey, "rsa-2", validClaims())

		_, err = newCachedValidator(t, server, shared).ValidateToken(context.Background(), rotatedToken)
		require.NoError(t, err)
		require.EqualValues(t, 2, server.jwksHits.Load())

		_, err = first.ValidateToken(context.Background(), rotatedToken)
		require.NoError(t, err)
		assert.EqualValues(t, 2, server.jwksHits.Load())
	})
}
