package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/employee-management/internal"
	"github.com/frahmantamala/employee-management/internal/auth"
	"github.com/frahmantamala/employee-management/internal/transport/middleware"
	"github.com/frahmantamala/employee-management/internal/transport/swagger"
	"github.com/frahmantamala/employee-management/internal/user"
	"github.com/go-chi/chi"
)

// Dependencies bundles everything the router mounts. Optional parts are nil
// when disabled in configuration.
type Dependencies struct {
	Logger         *slog.Logger
	UserHandler    *user.Handler
	AuthHandler    *auth.Handler
	HealthChecks   map[string]Check
	AllowedOrigins []string

	// Idempotency is applied to POST routes when set.
	Idempotency    middleware.IdempotencyStore
	IdempotencyTTL time.Duration

	TracingEnabled bool
	TracerName     string
}

func RegisterAllRoutes(router *chi.Mux, deps Dependencies) {
	healthHandler := NewHealthHandler(deps.HealthChecks)

	router.Use(middleware.CORS(deps.AllowedOrigins))
	router.Use(middleware.RequestID)
	if deps.TracingEnabled {
		router.Use(middleware.Tracing(deps.TracerName))
	}
	router.Use(middleware.LoggingMiddleware(deps.Logger))
	router.Use(middleware.RecoveryMiddleware(deps.Logger))

	router.Get("/openapi.yml", swagger.ServeSpec)
	router.Handle("/swagger/*", swagger.Handler())

	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)

	if deps.AuthHandler != nil {
		router.Post("/auth/login", deps.AuthHandler.Login)
	}

	users := func(r chi.Router) {
		if deps.AuthHandler != nil {
			r.Use(middleware.ProtectWrites(deps.AuthHandler.AuthMiddleware))
		}
		if deps.Idempotency != nil {
			r.Use(middleware.Idempotency(deps.Idempotency, deps.IdempotencyTTL, deps.Logger))
		}
		r.Post("/", deps.UserHandler.CreateUser)
		r.Get("/", deps.UserHandler.ListUsers)
		r.Get("/{id}", deps.UserHandler.GetUser)
		r.Put("/{id}", deps.UserHandler.UpdateUser)
		r.Delete("/{id}", deps.UserHandler.DeleteUser)
	}

	router.Route("/users", users)
	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", users)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		status, body := internal.NewNotFoundError("route not found", internal.ErrCodeRouteNotFound).ToHTTPResponse()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	})
}
