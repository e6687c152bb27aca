// Package core provides the API chassis for the DesignKit entitlement
// service. It creates a chi router, enforces cross-cutting concerns
// (recovery, request correlation, logging, user resolution) before requests
// reach domain handlers, and owns the shared response envelope.
package core

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"designkit/internal/config"
	"designkit/internal/types"
)

// UserSource resolves a user ID to a user record. Implemented by the
// database user repository; injected as an interface for testability.
type UserSource interface {
	GetByID(ctx context.Context, userID string) (*types.User, error)
}

// Server encapsulates the dependencies shared by all HTTP handlers, allowing
// injection during testing and distinct wiring per environment.
type Server struct {
	Config       *config.Config
	Logger       *slog.Logger
	Validator    *Validator
	Users        UserSource
	HealthProbes []HealthProbe

	router *chi.Mux
}

// NewServer initializes the chassis and prepares the router for route
// mounting. It performs a fail-fast check on critical dependencies. The
// caller mounts routes via MountRoutes after construction.
func NewServer(cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}

	return &Server{
		Config:    cfg,
		Logger:    logger,
		Validator: NewValidator(),
		router:    chi.NewRouter(),
	}, nil
}

// Handler returns the http.Handler for the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Router returns the underlying chi.Mux for route registration in tests.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// MountRoutes registers the global middleware chain, the health endpoint,
// and the /v1 API group. The v1 callback receives the group router so that
// the handlers package can register its routes without an import cycle.
//
// Middleware ordering is strict: Recoverer is outermost so it catches panics
// from every later stage, RequestID runs before the logger so every log line
// carries a correlation ID, and user resolution runs last so handler code
// only ever reads the context.
func (s *Server) MountRoutes(v1 func(r chi.Router)) {
	s.router.Use(s.Recoverer)
	s.router.Use(RequestIDMiddleware)
	s.router.Use(s.SecurityHeadersMiddleware)
	s.router.Use(RequestLogger(s.Logger))
	s.router.Use(s.UserMiddleware)

	s.router.Get("/health", s.HandleHealth)
	s.router.Route("/v1", v1)
}

// Shutdown performs a graceful termination of server-owned resources.
func (s *Server) Shutdown(ctx context.Context) error {
	s.Logger.InfoContext(ctx, "server shutdown initiated")

	if closer, ok := s.Users.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			s.Logger.ErrorContext(ctx, "error closing user source", "error", err)
			return fmt.Errorf("closing user source: %w", err)
		}
	}

	s.Logger.InfoContext(ctx, "server shutdown complete")
	return nil
}
