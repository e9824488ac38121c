package api

import (
	"github.com/go-chi/chi/v5"
)

// setupRoutes mounts the issue endpoints and the health check
func setupRoutes(r chi.Router, handlers *routeHandlers) {
	r.Group(func(r chi.Router) {
		r.Use(RequestLogger)

		r.Route("/api/issues/{project}", func(r chi.Router) {
			r.Get("/", handlers.issueHandler.listIssues())
			r.Post("/", handlers.issueHandler.createIssue())
			r.Put("/", handlers.issueHandler.updateIssue())
			r.Delete("/", handlers.issueHandler.deleteIssue())
		})
	})

	r.Get("/healthz", handlers.healthHandler.health())
}
