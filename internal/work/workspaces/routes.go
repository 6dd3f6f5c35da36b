package workspaces

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches workspace routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/workspaces", h.List)
	r.Post("/workspaces", h.Create)
	r.Get("/workspaces/{id}", h.Show)
	r.Patch("/workspaces/{id}", h.Update)
	r.Delete("/workspaces/{id}", h.Delete)
}
