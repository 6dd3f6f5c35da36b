package summary

import (
	"github.com/go-chi/chi/v5"
)

// MountRoutes attaches the summary route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/summary", h.Overview)
}
