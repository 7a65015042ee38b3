package articles

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the catalogue routes. The caller is expected to
// wrap r with the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1/articles", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)
		r.Get("/barcode/{barcode}", h.GetByBarcode)

		r.Route("/{articleID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/restore", h.Restore)
		})
	})
}
