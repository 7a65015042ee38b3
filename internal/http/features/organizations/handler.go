package organizations

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/http/middleware"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/directory"
	"github.com/tendant/proforma-api/pkg/domain"
)

// OrganizationService is the organization API the handler drives.
type OrganizationService interface {
	Create(ctx context.Context, ownerID uuid.UUID, in directory.OrganizationInput) (*domain.Organization, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Organization, error)
	List(ctx context.Context, ownerID uuid.UUID, deleted bool) ([]*domain.Organization, error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Organization, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in directory.OrganizationInput) (*domain.Organization, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, id uuid.UUID) error
}

// ClientService is the client API the handler drives.
type ClientService interface {
	Create(ctx context.Context, ownerID, orgID uuid.UUID, in directory.ClientInput) (*domain.Client, error)
	Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Client, error)
	List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool) ([]*domain.Client, error)
	Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Client, error)
	Update(ctx context.Context, ownerID, orgID, id uuid.UUID, in directory.ClientInput) (*domain.Client, error)
	Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error
}

// Handler handles organization and client endpoints. Every call is scoped
// to organizations owned by the authenticated user.
type Handler struct {
	logger  *slog.Logger
	orgs    OrganizationService
	clients ClientService
}

// NewHandler creates a new organizations handler.
func NewHandler(logger *slog.Logger, orgs OrganizationService, clients ClientService) *Handler {
	return &Handler{logger: logger, orgs: orgs, clients: clients}
}

// OrganizationRequest is the body of create and update calls.
type OrganizationRequest struct {
	Name                  string  `json:"name"`
	ManagerIdentification *string `json:"manager_identification,omitempty"`
	Phone                 *string `json:"phone,omitempty"`
	Email                 *string `json:"email,omitempty"`
	Address               *string `json:"address,omitempty"`
}

func (req OrganizationRequest) input() directory.OrganizationInput {
	return directory.OrganizationInput{
		Name:                  req.Name,
		ManagerIdentification: req.ManagerIdentification,
		Phone:                 req.Phone,
		Email:                 req.Email,
		Address:               req.Address,
	}
}

// OrganizationResponse represents an organization.
type OrganizationResponse struct {
	ID                    string     `json:"id"`
	Name                  string     `json:"name"`
	ManagerIdentification *string    `json:"manager_identification,omitempty"`
	Phone                 *string    `json:"phone,omitempty"`
	Email                 *string    `json:"email,omitempty"`
	Address               *string    `json:"address,omitempty"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	DeletedAt             *time.Time `json:"deleted_at,omitempty"`
}

func organizationResponse(org *domain.Organization) OrganizationResponse {
	return OrganizationResponse{
		ID:                    org.ID.String(),
		Name:                  org.Name,
		ManagerIdentification: org.ManagerIdentification,
		Phone:                 org.Phone,
		Email:                 org.Email,
		Address:               org.Address,
		CreatedAt:             org.CreatedAt,
		UpdatedAt:             org.UpdatedAt,
		DeletedAt:             org.DeletedAt,
	}
}

func organizationResponses(orgs []*domain.Organization) []OrganizationResponse {
	out := make([]OrganizationResponse, 0, len(orgs))
	for _, org := range orgs {
		out = append(out, organizationResponse(org))
	}
	return out
}

// callerID returns the authenticated user. The auth middleware guarantees
// it is present; a missing ID still answers 401 rather than panicking.
func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

// Create creates an organization owned by the caller.
// POST /v1/organizations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req OrganizationRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	org, err := h.orgs.Create(r.Context(), ownerID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, organizationResponse(org))
}

// List returns the caller's organizations.
// GET /v1/organizations?deleted=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgs, err := h.orgs.List(r.Context(), ownerID, httputil.QueryBool(r, "deleted"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, organizationResponses(orgs))
}

// Search matches the caller's organizations by name.
// GET /v1/organizations/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgs, err := h.orgs.Search(r.Context(), ownerID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, organizationResponses(orgs))
}

// Get returns one organization.
// GET /v1/organizations/{orgID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgID, ok := httputil.URLParamUUID(w, r, "orgID")
	if !ok {
		return
	}
	org, err := h.orgs.Get(r.Context(), ownerID, orgID)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, organizationResponse(org))
}

// Update replaces an organization's editable fields.
// PUT /v1/organizations/{orgID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgID, ok := httputil.URLParamUUID(w, r, "orgID")
	if !ok {
		return
	}
	var req OrganizationRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	org, err := h.orgs.Update(r.Context(), ownerID, orgID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, organizationResponse(org))
}

// Delete soft-deletes an organization.
// DELETE /v1/organizations/{orgID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgID, ok := httputil.URLParamUUID(w, r, "orgID")
	if !ok {
		return
	}
	if err := h.orgs.Delete(r.Context(), ownerID, orgID); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/organizations/{orgID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	orgID, ok := httputil.URLParamUUID(w, r, "orgID")
	if !ok {
		return
	}
	if err := h.orgs.Restore(r.Context(), ownerID, orgID); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
