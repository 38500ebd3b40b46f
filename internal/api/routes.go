package api

import (
	"passive-genius/internal/metrics"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", h.Health)
		r.Post("/sessions", h.CreateSession)

		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.tokens))

			r.Get("/state", h.State)
			r.Put("/profile", h.UpdateProfile)
			r.Post("/onboarding", h.SubmitOnboarding)
			r.Post("/onboarding/open", h.OpenOnboarding)
			r.Post("/saved/open", h.ViewSaved)
			r.Post("/tabs/{tab}", h.SelectTab)
			r.Post("/back", h.Back)
			r.Post("/notification/dismiss", h.DismissNotification)

			r.Post("/ideas/{id}/select", h.SelectIdea)
			r.Post("/ideas/{id}/favorite", h.ToggleFavorite)

			r.Put("/refinement/answers", h.SetAnswers)
			r.Post("/refinement/submit", h.SubmitRefinement)

			r.Post("/plan/tasks/{phase}/{task}", h.ToggleTask)
			r.Post("/plan/rating", h.RatePlan)
			r.Get("/plan/export.pdf", h.ExportPDF)
			r.Get("/plan/export.xlsx", h.ExportXLSX)
			r.Get("/share", h.Share)

			r.Get("/community/channels", h.ListChannels)
			r.Post("/community/channels", h.CreateChannel)
			r.Get("/community/channels/{id}", h.GetChannel)
			r.Post("/community/channels/{id}/messages", h.PostMessage)
			r.Get("/community/channels/{id}/ws", h.ChannelFeed)

			r.Post("/feedback", h.SubmitFeedback)
		})
	})

	return r
}
