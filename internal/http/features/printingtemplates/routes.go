package printingtemplates

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the printing template routes behind auth.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1/printing-templates", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/{templateID}", h.Get)
		r.Put("/{templateID}", h.Update)
		r.Delete("/{templateID}", h.Delete)
		r.Post("/{templateID}/restore", h.Restore)
	})
}
