package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// Routes builds the chi router for the public and admin API.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(h.accessLog)

	r.Get("/health", h.health)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.listEvents)
		r.Get("/{id}", h.getEvent)
		r.Get("/{id}/occupancy", h.getOccupancy)
		r.Post("/{id}/registrations", h.submit)
	})
	r.Get("/registrations/{id}", h.getRegistration)
	r.Post("/registrations/{id}/cancel", h.cancelRegistration)
	r.Get("/waitlist/{id}", h.getEntry)
	r.Post("/waitlist/{id}/confirm", h.confirmEntry)
	r.Post("/waitlist/{id}/cancel", h.cancelEntry)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdmin)
		r.Post("/events", h.createEvent)
		r.Patch("/events/{id}/capacity", h.setCapacity)
		r.Post("/events/{id}/promote", h.promoteNext)
		r.Get("/events/{id}/registrations", h.listRegistrations)
		r.Get("/events/{id}/waitlist", h.listWaitlist)
		r.Get("/settings", h.getSettings)
		r.Put("/settings", h.putSettings)
		r.Post("/jobs/sweep", h.runSweep)
	})

	return r
}
