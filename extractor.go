package marketauth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Headers read by DefaultCorrelationIDExtractor.
const (
	HeaderCorrelationID = "X-Correlation-ID"
	HeaderRequestID     = "X-Request-ID"
	HeaderTraceParent   = "traceparent"
)

// TokenExtractor is a function that takes a request as input and returns
// either a token or an error. An error should only be returned if an attempt
// to specify a token was found, but the information was somehow incorrectly
// formed. In the case where a token is simply not present, this should not
// be treated as an error. An empty string should be returned in that case.
type TokenExtractor func(r *http.Request) (string, error)

// AuthHeaderTokenExtractor is a TokenExtractor that takes a request
// and extracts the token from the Authorization header.
func AuthHeaderTokenExtractor(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", nil // No error, just no JWT.
	}

	authHeaderParts := strings.Fields(authHeader)
	if len(authHeaderParts) != 2 || !strings.EqualFold(authHeaderParts[0], "bearer") {
		return "", errors.New("authorization header format must be Bearer {token}")
	}

	return authHeaderParts[1], nil
}

// CookieTokenExtractor builds a TokenExtractor that takes a request and
// extracts the token from the cookie using the passed in cookieName.
func CookieTokenExtractor(cookieName string) TokenExtractor {
	return func(r *http.Request) (string, error) {
		cookie, err := r.Cookie(cookieName)
		if err != nil {
			return "", nil // No cookie, then no JWT, so no error.
		}
		return cookie.Value, nil
	}
}

// MultiTokenExtractor returns a TokenExtractor that runs multiple TokenExtractors
// and takes the one that does not return an empty token. If a TokenExtractor
// returns an error that error is immediately returned.
func MultiTokenExtractor(extractors ...TokenExtractor) TokenExtractor {
	return func(r *http.Request) (string, error) {
		for _, ex := range extractors {
			token, err := ex(r)
			if err != nil {
				return "", err
			}

			if token != "" {
				return token, nil
			}
		}
		return "", nil
	}
}

// CorrelationIDExtractor returns the correlation id for a request. It must
// never return an empty string.
type CorrelationIDExtractor func(r *http.Request) string

// DefaultCorrelationIDExtractor uses, in order, X-Correlation-ID,
// X-Request-ID, the trace id of a W3C traceparent header, the trace id of
// the active span, and finally a new random UUID.
func DefaultCorrelationIDExtractor(r *http.Request) string {
	for _, h := range []string{HeaderCorrelationID, HeaderRequestID} {
		if id := strings.TrimSpace(r.Header.Get(h)); id != "" {
			return id
		}
	}

	if id, ok := traceIDFromHeaders(r.Header); ok {
		return id
	}

	if id, ok := traceIDFromContext(r.Context()); ok {
		return id
	}

	return uuid.NewString()
}
