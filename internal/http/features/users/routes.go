package users

import "github.com/go-chi/chi/v5"

// RegisterRoutes registers the authenticated account routes. Sign-up
// (Create) is mounted by the router outside the auth group.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/users", h.List)
	r.Get("/v1/users/search", h.Search)
	r.Get("/v1/users/{userID}", h.Get)
	r.Patch("/v1/users/{userID}", h.Update)
	r.Delete("/v1/users/{userID}", h.Delete)
	r.Post("/v1/users/{userID}/restore", h.Restore)
}
