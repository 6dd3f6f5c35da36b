package loans

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches loan routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/loans", h.List)
	r.Post("/loans", h.Create)
	r.Get("/loans/{id}", h.Show)
	r.Patch("/loans/{id}", h.Update)
	r.Delete("/loans/{id}", h.Delete)
}
