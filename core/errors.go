package core

import "errors"

// Sentinel error kinds. Every failure returned by the validator, the key
// provider and the authorization gates matches exactly one of these with
// errors.Is.
var (
	// ErrTokenMissing is returned when no bearer token was supplied.
	ErrTokenMissing = errors.New("token missing")

	// ErrTokenExpired is returned when the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")

	// ErrInvalidToken covers malformed tokens, bad signatures, issuer
	// mismatches and signing keys that cannot be resolved after a refresh.
	ErrInvalidToken = errors.New("invalid token")

	// ErrAuthProviderUnavailable is returned when the identity provider's
	// discovery or JWKS endpoint could not be reached.
	ErrAuthProviderUnavailable = errors.New("auth provider unavailable")

	// ErrUnexpectedAuthFailure is returned for any other failure raised while
	// decoding or verifying a token.
	ErrUnexpectedAuthFailure = errors.New("unexpected auth failure")

	// ErrPermissionDenied is returned by authorization gates.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrClaimsNotFound is returned when claims cannot be retrieved from context.
	ErrClaimsNotFound = errors.New("claims not found in context")
)

// ValidationError carries a failure kind together with a machine-readable
// code, so callers can branch with errors.Is and log the precise cause.
type ValidationError struct {
	// Kind is one of the sentinel errors above.
	Kind error

	// Code is a machine-readable error code (e.g., "token_expired", "jwks_key_not_found")
	Code string

	// Message is a human-readable error message
	Message string

	// Details contains the underlying error
	Details error
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Details != nil {
		return e.Message + ": " + e.Details.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error for error unwrapping.
func (e *ValidationError) Unwrap() error {
	return e.Details
}

// Is reports whether target is the error's kind.
func (e *ValidationError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}

// Common error codes
const (
	ErrorCodeTokenMissing       = "token_missing"
	ErrorCodeTokenMalformed     = "token_malformed"
	ErrorCodeTokenExpired       = "token_expired"
	ErrorCodeTokenNotYetValid   = "token_not_yet_valid"
	ErrorCodeInvalidSignature   = "invalid_signature"
	ErrorCodeInvalidAlgorithm   = "invalid_algorithm"
	ErrorCodeInvalidIssuer      = "invalid_issuer"
	ErrorCodeInvalidClaims      = "invalid_claims"
	ErrorCodeDiscoveryFailed    = "discovery_failed"
	ErrorCodeJWKSFetchFailed    = "jwks_fetch_failed"
	ErrorCodeJWKSInvalid        = "jwks_invalid"
	ErrorCodeJWKSKeyNotFound    = "jwks_key_not_found"
	ErrorCodeUnexpected         = "unexpected_failure"
	ErrorCodePermissionDenied   = "permission_denied"
	ErrorCodeConfigInvalid      = "config_invalid"
	ErrorCodeValidatorNotSet    = "validator_not_set"
	ErrorCodeClaimsNotFound     = "claims_not_found"
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeAuthContextMissing = "auth_context_missing"
)

// NewValidationError creates a new ValidationError of the given kind.
func NewValidationError(kind error, code, message string, details error) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Code returns the machine-readable code carried by err, or "" when err does
// not wrap a ValidationError.
func Code(err error) string {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// Kind returns the sentinel kind of err. Errors that carry no known kind are
// reported as ErrUnexpectedAuthFailure so that callers never treat them as
// success.
func Kind(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrTokenMissing):
		return ErrTokenMissing
	case errors.Is(err, ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, ErrInvalidToken):
		return ErrInvalidToken
	case errors.Is(err, ErrAuthProviderUnavailable):
		return ErrAuthProviderUnavailable
	case errors.Is(err, ErrPermissionDenied):
		return ErrPermissionDenied
	default:
		return ErrUnexpectedAuthFailure
	}
}
