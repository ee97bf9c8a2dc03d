package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"timesheet-ai/internal/handlers"
	"timesheet-ai/internal/service"
	"timesheet-ai/internal/timesheet"
)

// Deps holds dependencies for the HTTP router.
type Deps struct {
	SessionService  service.SessionService
	DefaultSettings timesheet.Settings
	DB              handlers.Pinger
	// VectorStore is nil when activity memory is disabled.
	VectorStore    handlers.CollectionChecker
	CollectionName string
	Mode           string
}

// NewRouter creates a new HTTP router with the provided dependencies.
func NewRouter(deps *Deps) http.Handler {
	r := chi.NewRouter()

	// Add chi middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Add CORS and request-scoped logging
	r.Use(CORS)
	r.Use(LoggerMiddleware)

	sessionHandler := handlers.NewSessionHandler(deps.SessionService, deps.DefaultSettings)
	healthHandler := handlers.NewHealthHandler(deps.DB, deps.VectorStore, deps.CollectionName, deps.Mode)

	// Register API routes
	r.Route("/api", func(r chi.Router) {
		r.Method(http.MethodGet, "/health", healthHandler)

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", sessionHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sessionHandler.Get)
				r.Put("/mapping", sessionHandler.SetMapping)
				r.Post("/process", sessionHandler.Process)
				r.Get("/chunks", sessionHandler.Chunks)
				r.Get("/download", sessionHandler.Download)
			})
		})
	})

	return r
}
