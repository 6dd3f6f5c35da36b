package goals

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches goal routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/goals", h.List)
	r.Post("/goals", h.Create)
	r.Get("/goals/{id}", h.Show)
	r.Patch("/goals/{id}", h.Update)
	r.Delete("/goals/{id}", h.Delete)
}
