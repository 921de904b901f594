package marketauth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/tradepost/marketauth/core"
)

// ErrorHandler writes the response for a failed request. err is a
// *core.ValidationError (authentication), an *authz.PermissionDeniedError
// (authorization) or, for custom validators, anything else.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// ErrorResponse is the JSON body written by DefaultErrorHandler. Error and
// ErrorDescription follow RFC 6750.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
	ErrorCode        string `json:"error_code,omitempty"`
	CorrelationID    string `json:"correlation_id,omitempty"`
}

// DefaultErrorHandler maps failures onto HTTP:
//
//   - missing, expired, invalid or unverifiable token: 401
//   - malformed Authorization header: 400
//   - permission denied: 403
//   - identity provider unavailable: 503
//   - anything else: 500
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	status, resp, challenge := mapError(err)
	resp.CorrelationID = core.CorrelationID(r.Context())

	w.Header().Set("Content-Type", "application/json")
	if challenge != "" {
		w.Header().Set("WWW-Authenticate", challenge)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

func mapError(err error) (int, ErrorResponse, string) {
	code := core.Code(err)

	switch {
	case errors.Is(err, core.ErrTokenMissing):
		// RFC 6750 3.1: no error attributes when credentials are absent.
		return http.StatusUnauthorized, ErrorResponse{Error: "invalid_token", ErrorCode: code}, "Bearer"

	case code == core.ErrorCodeInvalidRequest:
		return bearerError(http.StatusBadRequest, "invalid_request", "The Authorization header must be Bearer {token}", code)

	case errors.Is(err, core.ErrTokenExpired):
		return bearerError(http.StatusUnauthorized, "invalid_token", "The access token expired", code)

	case errors.Is(err, core.ErrInvalidToken):
		return bearerError(http.StatusUnauthorized, "invalid_token", invalidTokenDescription(code), code)

	case errors.Is(err, core.ErrPermissionDenied):
		return bearerError(http.StatusForbidden, "insufficient_scope", "The caller is not allowed to perform this action", code)

	case errors.Is(err, core.ErrAuthProviderUnavailable):
		return http.StatusServiceUnavailable, ErrorResponse{
			Error:            "temporarily_unavailable",
			ErrorDescription: "The identity provider is unavailable",
			ErrorCode:        code,
		}, ""

	case errors.Is(err, core.ErrUnexpectedAuthFailure):
		return bearerError(http.StatusUnauthorized, "invalid_token", "Unable to verify the access token", code)

	default:
		return http.StatusInternalServerError, ErrorResponse{
			Error:            "server_error",
			ErrorDescription: "An internal error occurred while processing the request",
		}, ""
	}
}

func bearerError(status int, errCode, description, code string) (int, ErrorResponse, string) {
	challenge := fmt.Sprintf(`Bearer error=%q, error_description=%q`, errCode, description)
	return status, ErrorResponse{Error: errCode, ErrorDescription: description, ErrorCode: code}, challenge
}

func invalidTokenDescription(code string) string {
	switch code {
	case core.ErrorCodeTokenMalformed:
		return "The access token is malformed"
	case core.ErrorCodeInvalidSignature:
		return "The access token signature is invalid"
	case core.ErrorCodeInvalidIssuer:
		return "The access token was issued by an untrusted issuer"
	case core.ErrorCodeInvalidAlgorithm:
		return "The access token uses an unsupported algorithm"
	case core.ErrorCodeTokenNotYetValid:
		return "The access token is not yet valid"
	case core.ErrorCodeJWKSKeyNotFound:
		return "The access token was signed with an unknown key"
	default:
		return "The access token is invalid"
	}
}
