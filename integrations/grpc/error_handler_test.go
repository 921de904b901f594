package grpc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

func TestDefaultErrorHandler(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    codes.Code
		message string
	}{
		{
			name:    "missing token",
			err:     core.NewValidationError(core.ErrTokenMissing, core.ErrorCodeTokenMissing, "token missing", nil),
			code:    codes.Unauthenticated,
			message: "missing credentials",
		},
		{
			name:    "bare missing sentinel",
			err:     core.ErrTokenMissing,
			code:    codes.Unauthenticated,
			message: "missing credentials",
		},
		{
			name:    "expired token",
			err:     core.NewValidationError(core.ErrTokenExpired, core.ErrorCodeTokenExpired, "token has expired", nil),
			code:    codes.Unauthenticated,
			message: "token expired",
		},
		{
			name:    "invalid signature",
			err:     core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidSignature, "bad signature", nil),
			code:    codes.Unauthenticated,
			message: "invalid token: invalid_signature",
		},
		{
			name:    "unknown key after refresh",
			err:     core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeJWKSKeyNotFound, "kid not found", nil),
			code:    codes.Unauthenticated,
			message: "invalid token: jwks_key_not_found",
		},
		{
			name:    "malformed authorization metadata",
			err:     core.NewValidationError(core.ErrInvalidToken, core.ErrorCodeInvalidRequest, "error extracting token", ErrInvalidAuthFormat),
			code:    codes.InvalidArgument,
			message: "authorization metadata must be Bearer <token>",
		},
		{
			name: "bare extractor error",
			err:  ErrMultipleAuthHeaders,
			code: codes.InvalidArgument,
		},
		{
			name: "provider unavailable",
			err:  core.NewValidationError(core.ErrAuthProviderUnavailable, core.ErrorCodeJWKSFetchFailed, "jwks returned 503", nil),
			code: codes.Unavailable,
		},
		{
			name:    "unexpected failure",
			err:     core.NewValidationError(core.ErrUnexpectedAuthFailure, core.ErrorCodeUnexpected, "boom", nil),
			code:    codes.Unauthenticated,
			message: "unable to verify token",
		},
		{
			name:    "permission denied",
			err:     authz.RequireSeller(authz.Build(core.Claims{"sub": "u1"}, "c1"), "z"),
			code:    codes.PermissionDenied,
			message: `seller gate: caller may not act on seller "z"`,
		},
		{
			name:    "anything else",
			err:     errors.New("database on fire"),
			code:    codes.Internal,
			message: "internal error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(DefaultErrorHandler(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			if tt.message != "" {
				assert.Equal(t, tt.message, st.Message())
			}
		})
	}

	t.Run("nil is nil", func(t *testing.T) {
		assert.NoError(t, DefaultErrorHandler(nil))
	})
}
