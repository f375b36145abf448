package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-attendance/internal/web/handlers"
	"github.com/kozaktomas/face-attendance/internal/web/middleware"
)

func (s *Server) setupRoutes() {
	// Create handlers
	identitiesHandler := handlers.NewIdentitiesHandler(s.store, s.index, s.config.Matcher.Dim)
	classesHandler := handlers.NewClassesHandler(s.store)
	sessionsHandler := handlers.NewSessionsHandler(s.manager)
	embeddingsHandler := handlers.NewEmbeddingsHandler(s.manager, s.config.Matcher.Dim)
	summaryHandler := handlers.NewSummaryHandler(s.store)
	eventsHandler := handlers.NewEventsHandler(s.broadcaster)

	// Health check (no auth required)
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireToken(s.config.Web.APIToken))

		// Identities
		r.Get("/identities", identitiesHandler.List)
		r.Post("/identities", identitiesHandler.Enroll)
		r.Get("/identities/{id}", identitiesHandler.Get)
		r.Delete("/identities/{id}", identitiesHandler.Delete)
		r.Get("/identities/{id}/similar", identitiesHandler.Similar)

		// Classes and rosters
		r.Get("/classes", classesHandler.List)
		r.Post("/classes", classesHandler.Create)
		r.Get("/classes/{id}", classesHandler.Get)
		r.Get("/classes/{id}/roster", classesHandler.Roster)
		r.Post("/classes/{id}/roster", classesHandler.AddRosterMember)

		// Session lifecycle
		r.Get("/sessions", sessionsHandler.Active)
		r.Get("/classes/{id}/session", sessionsHandler.Status)
		r.Post("/classes/{id}/session/start", sessionsHandler.Start)
		r.Post("/classes/{id}/session/stop", sessionsHandler.Stop)

		// Embedding submits from the capture pipeline
		r.Post("/classes/{id}/embeddings", embeddingsHandler.Submit)

		// Attendance summaries
		r.Get("/classes/{id}/summary", summaryHandler.Get)

		// Live session events (SSE)
		r.Get("/events", eventsHandler.Stream)
	})
}
