package proformas

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the proforma routes on an organization router,
// which must carry the {orgID} URL parameter. Proformas cannot be edited
// once issued.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/proformas", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/{proformaID}", h.Get)
		r.Delete("/{proformaID}", h.Delete)
		r.Post("/{proformaID}/restore", h.Restore)
	})
}
