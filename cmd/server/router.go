package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/danniel-isiah-libor/talos-io/internal/api"
	apiMiddleware "github.com/danniel-isiah-libor/talos-io/internal/api/middleware"
	"github.com/danniel-isiah-libor/talos-io/internal/observability"
	"github.com/danniel-isiah-libor/talos-io/internal/service/auth"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	authHandler := api.NewAuthHandler(app.cfg.Auth, app.sessions, auth.NewBcryptVerifier())
	taskHandler := api.NewTaskHandler(app.registry, app.engine, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.sessions)

	r.Route("/api", func(r chi.Router) {
		// Login is the only public endpoint
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)

			r.Get("/tasks", taskHandler.List)
			r.Post("/tasks", taskHandler.Create)
			r.Put("/tasks", taskHandler.UpdateMany)
			r.Post("/tasks/{id}/start", taskHandler.Start)
			r.Post("/tasks/{id}/stop", taskHandler.Stop)
			r.Post("/tasks/{id}/verify", taskHandler.Verify)
			r.Delete("/tasks/{id}", taskHandler.Delete)

			r.Get("/ws", app.wsHandler.Serve)
		})
	})

	r.Handle("/metrics", observability.MetricsHandler())

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
