package categories

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches category routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/categories", h.List)
	r.Post("/categories", h.Create)
	r.Patch("/categories/{id}", h.Update)
	r.Delete("/categories/{id}", h.Delete)
}
