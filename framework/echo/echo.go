package jwtecho

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/tradepost/marketauth"
	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

type echoContextKey struct{}

// middlewareConfig holds all configuration for the middleware
type middlewareConfig struct {
	errorHandler func(echo.Context, error) error
	opts         []marketauth.Option
}

// New creates an Echo middleware that authenticates requests with v and
// stores the caller's AuthContext on the request context.
func New(v core.Validator, opts ...Option) (echo.MiddlewareFunc, error) {
	config := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := append([]marketauth.Option{
		marketauth.WithValidator(v),
		marketauth.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, ok := r.Context().Value(echoContextKey{}).(echo.Context)
			if !ok {
				marketauth.DefaultErrorHandler(w, r, err)
				return
			}
			c.SetRequest(r)
			if herr := config.errorHandler(c, err); herr != nil {
				c.Error(herr)
			}
		}),
	}, config.opts...)

	middleware, err := marketauth.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var nextErr error
			var handler http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
				c.SetRequest(r)
				nextErr = next(c)
			}

			r := c.Request().WithContext(context.WithValue(c.Request().Context(), echoContextKey{}, c))
			middleware.CheckJWT(handler).ServeHTTP(c.Response(), r)
			return nextErr
		}
	}, nil
}

// DefaultErrorHandler writes the marketauth.DefaultErrorHandler response.
func DefaultErrorHandler(c echo.Context, err error) error {
	marketauth.DefaultErrorHandler(c.Response(), c.Request(), err)
	return nil
}

// GetAuthContext returns the AuthContext stored by the middleware.
func GetAuthContext(c echo.Context) (*authz.AuthContext, bool) {
	return authz.FromContext(c.Request().Context())
}

// GetClaims returns the verified claims stored by the middleware.
func GetClaims(c echo.Context) (core.Claims, error) {
	return core.GetClaims(c.Request().Context())
}

// RequireSeller rejects callers that do not hold the seller scope named by
// the path parameter param.
func RequireSeller(param string) echo.MiddlewareFunc {
	return gate(func(c echo.Context, ac *authz.AuthContext) error {
		return authz.RequireSeller(ac, c.Param(param))
	})
}

// RequireAdmin rejects callers that are not realm administrators.
func RequireAdmin() echo.MiddlewareFunc {
	return gate(func(_ echo.Context, ac *authz.AuthContext) error {
		return authz.RequireAdmin(ac)
	})
}

func gate(check func(echo.Context, *authz.AuthContext) error) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ac, ok := GetAuthContext(c)
			if !ok {
				return DefaultErrorHandler(c, core.NewValidationError(core.ErrTokenMissing, core.ErrorCodeAuthContextMissing, "authentication required", nil))
			}
			if err := check(c, ac); err != nil {
				return DefaultErrorHandler(c, err)
			}
			return next(c)
		}
	}
}
