package inventories

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the inventory routes on an organization router,
// which must carry the {orgID} URL parameter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/inventories", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)

		r.Route("/{inventoryID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/restore", h.Restore)
			r.Post("/articles", h.AddArticle)
		})
	})
}
