package organizations

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers organization and client routes. The caller is
// expected to wrap r with the auth middleware. Each nested func is mounted on
// the /{orgID} router so other features can hang their routes off it.
func (h *Handler) RegisterRoutes(r chi.Router, nested ...func(chi.Router)) {
	r.Route("/v1/organizations", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Get("/search", h.Search)

		r.Route("/{orgID}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Put("/", h.Update)
			r.Delete("/", h.Delete)
			r.Post("/restore", h.Restore)

			r.Route("/clients", func(r chi.Router) {
				r.Get("/", h.ListClients)
				r.Post("/", h.CreateClient)
				r.Get("/search", h.SearchClients)
				r.Get("/{clientID}", h.GetClient)
				r.Put("/{clientID}", h.UpdateClient)
				r.Delete("/{clientID}", h.DeleteClient)
				r.Post("/{clientID}/restore", h.RestoreClient)
			})

			for _, register := range nested {
				register(r)
			}
		})
	})
}
