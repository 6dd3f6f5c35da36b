package transactions

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches transaction routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.List)
	r.Post("/transactions", h.Create)
	r.Get("/transactions/{id}", h.Show)
	r.Patch("/transactions/{id}", h.Update)
	r.Delete("/transactions/{id}", h.Delete)
}
