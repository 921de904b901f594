package marketauth

import (
	"net/http"

	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

// ParamFunc reads a route parameter, such as a seller or user id, from the
// request. With chi this is typically
//
//	func(r *http.Request) string { return chi.URLParam(r, "sellerID") }
type ParamFunc func(r *http.Request) string

// RequireSeller allows the request through only when the caller holds the
// seller scope named by sellerID. It must run after CheckJWT.
func (m *JWTMiddleware) RequireSeller(sellerID ParamFunc) func(http.Handler) http.Handler {
	return m.gate(authz.GateSeller, func(ac *authz.AuthContext, r *http.Request) error {
		return authz.RequireSeller(ac, sellerID(r))
	})
}

// RequireAdmin allows the request through only for realm administrators.
// It must run after CheckJWT.
func (m *JWTMiddleware) RequireAdmin() func(http.Handler) http.Handler {
	return m.gate(authz.GateAdmin, func(ac *authz.AuthContext, _ *http.Request) error {
		return authz.RequireAdmin(ac)
	})
}

// RequireSelfOrAdmin allows realm administrators, and callers whose subject
// equals the user id named by userID.
func (m *JWTMiddleware) RequireSelfOrAdmin(userID ParamFunc) func(http.Handler) http.Handler {
	return m.gate("self_or_admin", func(ac *authz.AuthContext, r *http.Request) error {
		if id := userID(r); id != "" && ac.Identity.Subject == id {
			return nil
		}
		return authz.RequireAdmin(ac)
	})
}

func (m *JWTMiddleware) gate(name string, check func(*authz.AuthContext, *http.Request) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ac, ok := authz.FromContext(r.Context())
			if !ok {
				// Credentials were optional and none were sent.
				m.errorHandler(w, r, core.NewValidationError(core.ErrTokenMissing, core.ErrorCodeAuthContextMissing, "authentication required", nil))
				return
			}

			if err := check(ac, r); err != nil {
				m.metrics.IncCounter(core.MetricAuthorizationDenys, map[string]string{"gate": name})
				if m.logger != nil {
					m.logger.Info("authorization denied",
						"gate", name,
						"subject", ac.Identity.Subject,
						"correlation_id", ac.CorrelationID,
						"path", r.URL.Path)
				}
				m.errorHandler(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
