package validator

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tradepost/marketauth/core"
	"github.com/tradepost/marketauth/jwks"
)

const tracerName = "github.com/tradepost/marketauth/validator"

// Signature algorithms
const (
	EdDSA = SignatureAlgorithm("EdDSA")
	HS256 = SignatureAlgorithm("HS256") // HMAC using SHA-256
	HS384 = SignatureAlgorithm("HS384") // HMAC using SHA-384
	HS512 = SignatureAlgorithm("HS512") // HMAC using SHA-512
	RS256 = SignatureAlgorithm("RS256") // RSASSA-PKCS-v1.5 using SHA-256
	RS384 = SignatureAlgorithm("RS384") // RSASSA-PKCS-v1.5 using SHA-384
	RS512 = SignatureAlgorithm("RS512") // RSASSA-PKCS-v1.5 using SHA-512
	ES256 = SignatureAlgorithm("ES256") // ECDSA using P-256 and SHA-256
	ES384 = SignatureAlgorithm("ES384") // ECDSA using P-384 and SHA-384
	ES512 = SignatureAlgorithm("ES512") // ECDSA using P-521 and SHA-512
	PS256 = SignatureAlgorithm("PS256") // RSASSA-PSS using SHA256 and MGF1-SHA256
	PS384 = SignatureAlgorithm("PS384") // RSASSA-PSS using SHA384 and MGF1-SHA384
	PS512 = SignatureAlgorithm("PS512") // RSASSA-PSS using SHA512 and MGF1-SHA512
)

// SignatureAlgorithm is a signature algorithm.
type SignatureAlgorithm string

// keyTypes maps each supported algorithm to the JWK kty it must be verified with.
var keyTypes = map[SignatureAlgorithm]string{
	EdDSA: "OKP",
	HS256: "oct",
	HS384: "oct",
	HS512: "oct",
	RS256: "RSA",
	RS384: "RSA",
	RS512: "RSA",
	ES256: "EC",
	ES384: "EC",
	ES512: "EC",
	PS256: "RSA",
	PS384: "RSA",
	PS512: "RSA",
}

// defaultAlgorithms is every asymmetric algorithm. HMAC must be enabled
// explicitly with WithAlgorithms.
var defaultAlgorithms = []SignatureAlgorithm{
	RS256, RS384, RS512,
	PS256, PS384, PS512,
	ES256, ES384, ES512,
	EdDSA,
}

// KeyProvider supplies key sets to the Validator. *jwks.CachingProvider
// implements it.
type KeyProvider interface {
	// KeySet returns the current key set, cache first.
	KeySet(ctx context.Context) (*jwks.KeySet, error)
	// Refresh fetches the key set from the identity provider.
	Refresh(ctx context.Context) (*jwks.KeySet, error)
}

// Validator verifies bearer tokens against the identity provider's rotating
// signing keys.
//
// The algorithm is taken from each token's header and must be one of the
// allowed algorithms and match the type of the key named by its kid.
// Signature, exp and iss are verified. aud is not checked: tokens minted for
// any audience by the configured issuer are accepted.
type Validator struct {
	keys       KeyProvider
	issuer     string
	algorithms []SignatureAlgorithm
	clockSkew  time.Duration
	logger     core.Logger
	tracer     trace.Tracer

	// maxAge bounds how long index is trusted before it is re-read through
	// the KeyProvider.
	maxAge time.Duration

	parser *jwt.Parser
	// index is the most recently loaded key set.
	index atomic.Pointer[loadedKeySet]
}

type loadedKeySet struct {
	*jwks.KeySet
	loadedAt time.Time
}

// New builds a Validator. WithIssuer is required.
//
//	v, err := validator.New(keys,
//	    validator.WithIssuer("https://idp.example.com/realms/market"),
//	)
func New(keys KeyProvider, opts ...Option) (*Validator, error) {
	if keys == nil {
		return nil, errors.New("key provider is required but was nil")
	}

	v := &Validator{
		keys:       keys,
		algorithms: defaultAlgorithms,
		maxAge:     jwks.DefaultCacheTTL,
		tracer:     otel.Tracer(tracerName),
	}

	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if v.issuer == "" {
		return nil, errors.New("issuer is required (use WithIssuer)")
	}

	methods := make([]string, len(v.algorithms))
	for i, alg := range v.algorithms {
		methods[i] = string(alg)
	}
	v.parser = jwt.NewParser(
		jwt.WithValidMethods(methods),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(v.clockSkew),
	)

	return v, nil
}

// ValidateToken verifies token and returns its claims unmodified.
//
// Every error is a *core.ValidationError of kind core.ErrTokenExpired,
// core.ErrInvalidToken, core.ErrAuthProviderUnavailable or
// core.ErrUnexpectedAuthFailure.
func (v *Validator) ValidateToken(ctx context.Context, tokenString string) (claims core.Claims, err error) {
	ctx, span := v.tracer.Start(ctx, "validator.ValidateToken")
	defer func() {
		if r := recover(); r != nil {
			claims = nil
			err = core.NewValidationError(
				core.ErrUnexpectedAuthFailure,
				core.ErrorCodeUnexpected,
				"token validation panicked",
				fmt.Errorf("%v", r),
			)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, core.Code(err))
		}
		span.End()
	}()

	if err := validateTokenFormat(tokenString); err != nil {
		return nil, core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeTokenMalformed, "token is malformed", err)
	}

	mapClaims := jwt.MapClaims{}
	_, err = v.parser.ParseWithClaims(tokenString, mapClaims, func(token *jwt.Token) (any, error) {
		return v.resolveKey(ctx, span, token)
	})
	if err != nil {
		return nil, classify(err)
	}

	return core.Claims(mapClaims), nil
}

// classify maps parser failures onto the error taxonomy. Errors raised by
// resolveKey are already classified and pass through.
func classify(err error) error {
	var ve *core.ValidationError
	if errors.As(err, &ve) {
		return ve
	}

	invalid := func(code, message string) error {
		return core.NewValidationError(core.ErrInvalidToken, code, message, err)
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return core.NewValidationError(core.ErrTokenExpired, core.ErrorCodeTokenExpired, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		return invalid(core.ErrorCodeTokenMalformed, "token is malformed")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return invalid(core.ErrorCodeInvalidSignature, "token signature is invalid")
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return invalid(core.ErrorCodeInvalidIssuer, "token issuer is not trusted")
	case errors.Is(err, jwt.ErrTokenNotValidYet), errors.Is(err, jwt.ErrTokenUsedBeforeIssued):
		return invalid(core.ErrorCodeTokenNotYetValid, "token is not valid yet")
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return invalid(core.ErrorCodeInvalidAlgorithm, "token cannot be verified")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing),
		errors.Is(err, jwt.ErrTokenInvalidClaims),
		errors.Is(err, jwt.ErrTokenInvalidSubject),
		errors.Is(err, jwt.ErrTokenInvalidId),
		errors.Is(err, jwt.ErrTokenInvalidAudience):
		return invalid(core.ErrorCodeInvalidClaims, "token claims are invalid")
	default:
		return core.NewValidationError(core.ErrUnexpectedAuthFailure, core.ErrorCodeUnexpected, "token validation failed", err)
	}
}

var _ core.Validator = (*Validator)(nil)
