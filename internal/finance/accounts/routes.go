package accounts

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches account routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/accounts", h.List)
	r.Post("/accounts", h.Create)
	r.Get("/accounts/{id}", h.Show)
	r.Patch("/accounts/{id}", h.Update)
	r.Delete("/accounts/{id}", h.Delete)
	r.Post("/accounts/{id}/reconcile", h.Reconcile)
	r.Post("/accounts/{id}/opening-balance", h.OpeningBalance)
}
