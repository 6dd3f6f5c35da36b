package pomodoro

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches session routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/pomodoro/sessions", h.ListDay)
	r.Post("/pomodoro/sessions", h.Start)
	r.Post("/pomodoro/sessions/{id}/finish", h.Finish)
}
