package boards

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches board routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/boards", h.List)
	r.Post("/boards", h.Create)
	r.Get("/boards/{id}", h.Show)
	r.Patch("/boards/{id}", h.Update)
	r.Delete("/boards/{id}", h.Delete)
	r.Post("/boards/{id}/columns", h.AddColumn)
	r.Patch("/boards/{id}/columns/{columnID}", h.RenameColumn)
	r.Delete("/boards/{id}/columns/{columnID}", h.DeleteColumn)
}
