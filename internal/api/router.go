package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/nanovideo/internal/api/handler"
	mw "github.com/iconidentify/nanovideo/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured.
func NewRouter(
	downloadHandler *handler.DownloadHandler,
	filesHandler *handler.FilesHandler,
	healthHandler *handler.HealthHandler,
	apiKeys []string,
	allowedHosts []string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath) // Normalize paths (e.g., //health -> /health)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// CORS runs before auth so preflights never need a key.
	r.Use(mw.CORS(allowedHosts))

	// Service banner and health check (no auth)
	r.Get("/", healthHandler.Index)
	r.Get("/health", healthHandler.Health)

	// Everything else requires an API key.
	r.Group(func(r chi.Router) {
		r.Use(mw.APIKeyAuth(apiKeys))

		r.Get("/stats", healthHandler.Stats)

		r.Get("/download", downloadHandler.Download)
		r.Post("/download", downloadHandler.Download)
		r.Get("/share", downloadHandler.Share)
		r.Post("/share", downloadHandler.Share)
		r.Post("/info", downloadHandler.Info)

		r.Get("/files", filesHandler.List)
		r.Get("/files/{name}", filesHandler.Serve)
	})

	return r
}
