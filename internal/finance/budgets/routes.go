package budgets

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches budget routes. Delete takes a JSON body because the
// caller chooses what happens to unspent funds.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/budgets", h.List)
	r.Post("/budgets", h.Create)
	r.Get("/budgets/{id}", h.Show)
	r.Patch("/budgets/{id}", h.Update)
	r.Post("/budgets/{id}/close", h.Close)
	r.Delete("/budgets/{id}", h.Delete)
}
