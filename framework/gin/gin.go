package jwtgin

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tradepost/marketauth"
	"github.com/tradepost/marketauth/authz"
	"github.com/tradepost/marketauth/core"
)

type ginContextKey struct{}

type middlewareConfig struct {
	errorHandler func(*gin.Context, error)
	opts         []marketauth.Option
}

// New creates a Gin middleware that authenticates requests with v and stores
// the caller's AuthContext on the request context. Options given through
// WithMiddlewareOptions are passed to marketauth.New unchanged.
func New(v core.Validator, opts ...Option) (gin.HandlerFunc, error) {
	config := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(config)
	}

	middlewareOpts := append([]marketauth.Option{
		marketauth.WithValidator(v),
		marketauth.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
			c, ok := r.Context().Value(ginContextKey{}).(*gin.Context)
			if !ok {
				marketauth.DefaultErrorHandler(w, r, err)
				return
			}
			c.Request = r
			config.errorHandler(c, err)
		}),
	}, config.opts...)

	middleware, err := marketauth.New(middlewareOpts...)
	if err != nil {
		return nil, err
	}

	return func(c *gin.Context) {
		passed := false
		var next http.HandlerFunc = func(w http.ResponseWriter, r *http.Request) {
			passed = true
			c.Request = r
			c.Next()
		}

		r := c.Request.WithContext(context.WithValue(c.Request.Context(), ginContextKey{}, c))
		middleware.CheckJWT(next).ServeHTTP(c.Writer, r)

		if !passed {
			c.Abort()
		}
	}, nil
}

// DefaultErrorHandler writes the marketauth.DefaultErrorHandler response and
// aborts the chain.
func DefaultErrorHandler(c *gin.Context, err error) {
	marketauth.DefaultErrorHandler(c.Writer, c.Request, err)
	c.Abort()
}

// GetAuthContext returns the AuthContext stored by the middleware.
func GetAuthContext(c *gin.Context) (*authz.AuthContext, bool) {
	return authz.FromContext(c.Request.Context())
}

// GetClaims returns the verified claims stored by the middleware.
func GetClaims(c *gin.Context) (core.Claims, error) {
	return core.GetClaims(c.Request.Context())
}

// RequireSeller aborts with 403 unless the caller holds the seller scope
// named by the route parameter param.
func RequireSeller(param string) gin.HandlerFunc {
	return gate(func(c *gin.Context, ac *authz.AuthContext) error {
		return authz.RequireSeller(ac, c.Param(param))
	})
}

// RequireAdmin aborts with 403 unless the caller is a realm administrator.
func RequireAdmin() gin.HandlerFunc {
	return gate(func(_ *gin.Context, ac *authz.AuthContext) error {
		return authz.RequireAdmin(ac)
	})
}

func gate(check func(*gin.Context, *authz.AuthContext) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		ac, ok := GetAuthContext(c)
		if !ok {
			DefaultErrorHandler(c, core.NewValidationError(core.ErrTokenMissing, core.ErrorCodeAuthContextMissing, "authentication required", nil))
			return
		}
		if err := check(c, ac); err != nil {
			DefaultErrorHandler(c, err)
			return
		}
		c.Next()
	}
}
