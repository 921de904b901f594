package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestServer creates a test HTTP server that returns the specified response code and body.
func setupTestServer(responseCode int, responseBody string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(responseCode)
		_, _ = w.Write([]byte(responseBody))
	}))
}

func TestGetWellKnownEndpoints(t *testing.T) {
	tests := []struct {
		name         string
		responseCode int
		responseBody string
		expectError  string
	}{
		{
			name:         "Successful 200 response with valid JSON",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://idp/realms/x","jwks_uri":"https://idp/realms/x/certs"}`,
		},
		{
			name:         "404 Not Found response",
			responseCode: http.StatusNotFound,
			responseBody: `{"error": "not found"}`,
			expectError:  "returned status 404",
		},
		{
			name:         "503 Service Unavailable response",
			responseCode: http.StatusServiceUnavailable,
			responseBody: `unavailable`,
			expectError:  "returned status 503",
		},
		{
			name:         "Malformed JSON response",
			responseCode: http.StatusOK,
			responseBody: `{"jwks_uri": "https://idp/certs"`,
			expectError:  "could not decode json body",
		},
		{
			name:         "Document without jwks_uri",
			responseCode: http.StatusOK,
			responseBody: `{"issuer":"https://idp/realms/x"}`,
			expectError:  "has no jwks_uri",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(tt.responseCode, tt.responseBody)
			defer server.Close()

			endpoints, err := GetWellKnownEndpoints(context.Background(), server.Client(), server.URL+"/.well-known/openid-configuration")
			if tt.expectError != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expectError)
				assert.Nil(t, endpoints)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "https://idp/realms/x", endpoints.Issuer)
			assert.Equal(t, "https://idp/realms/x/certs", endpoints.JWKSURI)
		})
	}

	t.Run("Unreachable server", func(t *testing.T) {
		server := setupTestServer(http.StatusOK, `{}`)
		url := server.URL
		server.Close()

		_, err := GetWellKnownEndpoints(context.Background(), &http.Client{Timeout: time.Second}, url)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not get well known endpoints")
	})

	t.Run("Cancelled context", func(t *testing.T) {
		server := setupTestServer(http.StatusOK, `{"jwks_uri":"x"}`)
		defer server.Close()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := GetWellKnownEndpoints(ctx, nil, server.URL)
		require.Error(t, err)
		assert.ErrorIs(t, err, context.Canceled)
	})
}
