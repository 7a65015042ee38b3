package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/http/middleware"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/directory"
	"github.com/tendant/proforma-api/pkg/domain"
)

// Service is the user account API the handler drives.
type Service interface {
	Create(ctx context.Context, in directory.CreateUserInput) (*domain.User, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.User, error)
	List(ctx context.Context, deleted bool, req domain.PageRequest) (*domain.Page[*domain.UserProfile], error)
	Search(ctx context.Context, term string) ([]*domain.UserProfile, error)
	Update(ctx context.Context, id uuid.UUID, in directory.UpdateUserInput) (*domain.User, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Restore(ctx context.Context, id uuid.UUID) error
}

// Handler handles user account endpoints. Reads are open to any signed-in
// user; changes are limited to the caller's own account.
type Handler struct {
	logger *slog.Logger
	users  Service
}

// NewHandler creates a new users handler.
func NewHandler(logger *slog.Logger, users Service) *Handler {
	return &Handler{logger: logger, users: users}
}

// CreateRequest represents a sign-up request.
type CreateRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateRequest represents a partial account update.
type UpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

// Create registers a new account.
// POST /v1/users
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Create(r.Context(), directory.CreateUserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusCreated, user.Profile())
}

// List returns one page of accounts ordered by name.
// GET /v1/users?deleted=&page=&page_size=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, err := h.users.List(r.Context(), httputil.QueryBool(r, "deleted"), httputil.PageRequestFromQuery(r))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, page)
}

// Search matches accounts by name or email.
// GET /v1/users/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	found, err := h.users.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, found)
}

// Get returns one account.
// GET /v1/users/{userID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.URLParamUUID(w, r, "userID")
	if !ok {
		return
	}
	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user.Profile())
}

// Update changes name, email or active flag.
// PATCH /v1/users/{userID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := selfID(w, r)
	if !ok {
		return
	}
	var req UpdateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	user, err := h.users.Update(r.Context(), id, directory.UpdateUserInput{
		Name:   req.Name,
		Email:  req.Email,
		Active: req.Active,
	})
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, user.Profile())
}

// Delete soft-deletes an account and ends its sessions.
// DELETE /v1/users/{userID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := selfID(w, r)
	if !ok {
		return
	}
	if err := h.users.Delete(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/users/{userID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	id, ok := selfID(w, r)
	if !ok {
		return
	}
	if err := h.users.Restore(r.Context(), id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selfID returns the {userID} path parameter when it names the caller.
// Another user's account answers 404, the same as one that does not exist.
func selfID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	callerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	id, ok := httputil.URLParamUUID(w, r, "userID")
	if !ok {
		return uuid.Nil, false
	}
	if id != callerID {
		httputil.Error(w, http.StatusNotFound, domain.ErrUserNotFound.Error())
		return uuid.Nil, false
	}
	return id, true
}
