/*
Package marketauth authenticates marketplace API requests and authorizes
callers against their seller scopes and realm roles.

The module is layered:

	validator   verifies bearer tokens against the identity provider's JWKS
	jwks        discovery, JWKS fetch and the shared key-set cache
	authz       builds the per-request AuthContext and the seller/admin gates
	core        error taxonomy and the framework-agnostic check engine
	marketauth  net/http middleware (this package)

Framework adapters live in framework/gin, framework/echo and
integrations/grpc.

# Quick Start

	source, err := jwks.NewProvider(ctx,
	    jwks.WithDiscoveryURL("https://idp.example.com/realms/market/.well-known/openid-configuration"),
	)
	if err != nil {
	    log.Fatal(err)
	}

	keys, err := jwks.NewCachingProvider(source, rediscache.NewFromClient(rdb))
	if err != nil {
	    log.Fatal(err)
	}

	v, err := validator.New(keys, validator.WithIssuer(source.Issuer()))
	if err != nil {
	    log.Fatal(err)
	}

	mw, err := marketauth.New(marketauth.WithValidator(v))
	if err != nil {
	    log.Fatal(err)
	}

	r := chi.NewRouter()
	r.Use(mw.CheckJWT)
	r.With(mw.RequireSeller(func(r *http.Request) string {
	    return chi.URLParam(r, "sellerID")
	})).Get("/sellers/{sellerID}/orders", listOrders)
	r.With(mw.RequireAdmin()).Get("/admin/users", listUsers)

# Accessing the Caller

	func listOrders(w http.ResponseWriter, r *http.Request) {
	    ac, ok := marketauth.GetAuthContext(r.Context())
	    if !ok {
	        http.Error(w, "unauthenticated", http.StatusUnauthorized)
	        return
	    }
	    fmt.Fprintln(w, ac.Identity.Subject, ac.SellerIDs())
	}

GetClaims returns the verified claim map exactly as the identity provider
issued it.

# Correlation IDs

Every authenticated request carries a correlation id taken from
X-Correlation-ID, X-Request-ID or a W3C traceparent header, or generated
when none is present. It is stored on the AuthContext, echoed in the
X-Correlation-ID response header and included in error bodies.

# Error Responses

DefaultErrorHandler writes RFC 6750 style JSON:

	401  missing, expired, invalid or unverifiable token
	400  Authorization header that is not "Bearer <token>"
	403  seller or admin gate denied the caller
	503  the identity provider could not be reached

	{
	  "error": "invalid_token",
	  "error_description": "The access token expired",
	  "error_code": "token_expired",
	  "correlation_id": "4bf92f3577b34da6a3ce929d0e0e4736"
	}

# Observability

WithLogger accepts *slog.Logger directly, or zap and logrus through
NewZapLogger and NewLogrusLogger. WithMetrics accepts a PrometheusMetrics
registered on any prometheus.Registerer. CheckJWT starts a
"marketauth.CheckJWT" span on the global OpenTelemetry tracer unless
WithTracer is given.
*/
package marketauth
