// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package api is the HTTP composition root: it builds the chi router, mounts the
middleware chain and the users and auth route groups, and runs the
[http.Server].
*/
package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/TimGrootscholten/tournaments-server/internal/platform/apperr"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/config"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/constants"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/middleware"
	"github.com/TimGrootscholten/tournaments-server/internal/platform/respond"
	"github.com/TimGrootscholten/tournaments-server/internal/users/account"
	"github.com/TimGrootscholten/tournaments-server/internal/users/auth"
)

// Handlers are the route groups mounted by [NewServer].
type Handlers struct {
	// Liveness answers /health while the process runs.
	Liveness http.HandlerFunc

	// Readiness answers /ready, 503 when a dependency is down.
	Readiness http.HandlerFunc

	// Auth serves /api/v1/auth: token, refresh and revoke.
	Auth *auth.Handler

	// Users serves /api/v1/users.
	Users *account.Handler
}

// Server owns the router and the listening [http.Server].
type Server struct {
	httpServer *http.Server
	log        *slog.Logger
}

// NewServer builds the router. context bounds the rate limiter janitors.
func NewServer(context context.Context, cfg *config.Config, log *slog.Logger, verifier middleware.TokenVerifier, handlers Handlers) *Server {
	router := chi.NewRouter()

	router.Use(
		middleware.RequestID(),
		middleware.ClientIP(cfg.TrustProxyHeaders),
		middleware.StructuredLogger(log),
		middleware.PanicRecovery(),
		chimw.Timeout(constants.GlobalRequestTimeout),
		middleware.RateLimit(context, constants.DefaultRateLimitRPS, constants.DefaultRateLimitBurst),
		middleware.CORS(cfg),
		middleware.Authenticate(verifier),
		chimw.CleanPath,
	)

	router.NotFound(func(writer http.ResponseWriter, request *http.Request) {
		respond.Error(writer, request, apperr.NotFound("Route"))
	})
	router.MethodNotAllowed(func(writer http.ResponseWriter, request *http.Request) {
		respond.JSON(writer, http.StatusMethodNotAllowed, respond.ErrorEnvelope{
			Error: "Method not allowed",
			Code:  "METHOD_NOT_ALLOWED",
		})
	})

	router.Get("/health", handlers.Liveness)
	router.Get("/ready", handlers.Readiness)

	router.Route("/api/v1", func(v1 chi.Router) {
		// Credential endpoints get a tighter per-address budget.
		v1.Route("/auth", func(authRouter chi.Router) {
			authRouter.Use(middleware.RateLimit(context, constants.AuthRateLimitRPS, constants.AuthRateLimitBurst))
			authRouter.Mount("/", handlers.Auth.Routes())
		})
		v1.Mount("/users", handlers.Users.Routes())
	})

	return &Server{
		log: log,
		httpServer: &http.Server{
			Addr:              ":" + cfg.ServerPort,
			Handler:           router,
			ReadTimeout:       constants.DefaultReadTimeout,
			WriteTimeout:      constants.DefaultWriteTimeout,
			IdleTimeout:       constants.DefaultIdleTimeout,
			ReadHeaderTimeout: constants.DefaultReadHeaderTimeout,
			ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		},
	}
}

// Handler exposes the routed handler, mainly for tests.
func (server *Server) Handler() http.Handler {
	return server.httpServer.Handler
}

// ListenAndServe blocks until the server stops. It returns
// [http.ErrServerClosed] after [Server.Shutdown].
func (server *Server) ListenAndServe() error {
	server.log.Info("server_starting", slog.String("addr", server.httpServer.Addr))
	return server.httpServer.ListenAndServe()
}

// Shutdown stops accepting connections and waits up to timeout for in-flight
// requests.
func (server *Server) Shutdown(timeout time.Duration) error {
	context, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return server.httpServer.Shutdown(context)
}
