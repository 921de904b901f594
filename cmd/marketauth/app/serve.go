package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tradepost/marketauth"
)

const (
	defaultGracefulTimeout = 30 * time.Second
	serverReadTimeout      = 10 * time.Second
	serverWriteTimeout     = 15 * time.Second
	serverIdleTimeout      = 60 * time.Second
)

func newServeCmd(root *rootOptions) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve a demo API gated by seller and admin checks",
		Long: `Serve a small HTTP API that authenticates every request and applies the
seller, admin and self-or-admin gates:

  GET /healthz                      unauthenticated
  GET /metrics                      unauthenticated, Prometheus
  GET /v1/me                        any caller
  GET /v1/sellers/{sellerID}        callers holding the seller scope
  GET /v1/users/{userID}            the user themself or an administrator
  GET /v1/admin/keys                administrators`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			zl, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			defer func() { _ = zl.Sync() }()
			logger := marketauth.NewZapLogger(zl)

			registry := prometheus.NewRegistry()
			metrics := marketauth.NewPrometheusMetrics(registry)

			st, err := buildStack(cmd.Context(), cfg, logger, metrics)
			if err != nil {
				return err
			}
			defer func() { _ = st.close() }()

			router, err := newRouter(st, logger, metrics, registry)
			if err != nil {
				return err
			}

			return runServer(cmd.Context(), zl, &http.Server{
				Addr:         cfg.Server.Listen,
				Handler:      router,
				ReadTimeout:  serverReadTimeout,
				WriteTimeout: serverWriteTimeout,
				IdleTimeout:  serverIdleTimeout,
			})
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "address to listen on (overrides server.listen)")

	return cmd
}

func newRouter(st *stack, logger marketauth.Logger, metrics *marketauth.PrometheusMetrics, gatherer prometheus.Gatherer) (http.Handler, error) {
	mw, err := marketauth.New(
		marketauth.WithValidator(st.validator),
		marketauth.WithLogger(logger),
		marketauth.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.CheckJWT)

		r.Get("/me", handleMe)
		r.With(mw.RequireSeller(urlParam("sellerID"))).
			Get("/sellers/{sellerID}", handleSeller)
		r.With(mw.RequireSelfOrAdmin(urlParam("userID"))).
			Get("/users/{userID}", handleUser)
		r.With(mw.RequireAdmin()).
			Get("/admin/keys", handleKeys(st))
	})

	return r, nil
}

func urlParam(name string) marketauth.ParamFunc {
	return func(r *http.Request) string { return chi.URLParam(r, name) }
}

func handleMe(w http.ResponseWriter, r *http.Request) {
	ac := marketauth.MustGetAuthContext(r.Context())
	writeJSON(w, map[string]any{
		"subject":        ac.Identity.Subject,
		"issuer":         ac.Identity.Issuer,
		"sellers":        ac.SellerIDs(),
		"admin":          ac.IsAdmin(),
		"correlation_id": ac.CorrelationID,
	})
}

func handleSeller(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"seller_id": chi.URLParam(r, "sellerID"),
		"caller":    marketauth.MustGetAuthContext(r.Context()).Identity.Subject,
	})
}

func handleUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"user_id": chi.URLParam(r, "userID"),
		"caller":  marketauth.MustGetAuthContext(r.Context()).Identity.Subject,
	})
}

func handleKeys(st *stack) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		set, err := st.keys.KeySet(r.Context())
		if err != nil {
			marketauth.DefaultErrorHandler(w, r, err)
			return
		}
		writeJSON(w, map[string]any{
			"source": set.Source.String(),
			"keys":   set.Keys(),
		})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func runServer(ctx context.Context, logger *zap.Logger, server *http.Server) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultGracefulTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("server shutdown complete")
	return nil
}
