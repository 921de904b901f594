package validator

import (
	"errors"
	"strings"
)

var (
	// ErrExcessiveTokenDots is returned when a token has more segments than a
	// compact JWS.
	ErrExcessiveTokenDots = errors.New("token contains excessive dots")

	// ErrTokenTooLarge is returned for tokens over maxTokenBytes.
	ErrTokenTooLarge = errors.New("token exceeds maximum size (1MB)")

	// ErrEmptyToken is returned for an empty token string.
	ErrEmptyToken = errors.New("token is empty")
)

const (
	// maxTokenDots: header.payload.signature.
	maxTokenDots = 2

	maxTokenBytes = 1 << 20
)

// validateTokenFormat rejects inputs that cannot be a compact JWS before
// they reach the parser.
func validateTokenFormat(tokenString string) error {
	if len(tokenString) == 0 {
		return ErrEmptyToken
	}

	if len(tokenString) > maxTokenBytes {
		return ErrTokenTooLarge
	}

	if strings.Count(tokenString, ".") > maxTokenDots {
		return ErrExcessiveTokenDots
	}

	return nil
}
