package tasks

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches task routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/tasks", h.List)
	r.Post("/tasks", h.Create)
	r.Get("/tasks/{id}", h.Show)
	r.Patch("/tasks/{id}", h.Update)
	r.Delete("/tasks/{id}", h.Delete)
	r.Post("/tasks/{id}/move", h.Move)
	r.Post("/tasks/{id}/complete", h.Complete)
	r.Post("/tasks/{id}/reopen", h.Reopen)
}
