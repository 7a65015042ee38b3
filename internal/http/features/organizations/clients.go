package organizations

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/directory"
	"github.com/tendant/proforma-api/pkg/domain"
)

// ClientRequest is the body of client create and update calls.
type ClientRequest struct {
	Identification string  `json:"identification"`
	Name           string  `json:"name"`
	LastName       *string `json:"last_name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

func (req ClientRequest) input() directory.ClientInput {
	return directory.ClientInput{
		Identification: req.Identification,
		Name:           req.Name,
		LastName:       req.LastName,
		Email:          req.Email,
		Phone:          req.Phone,
		Active:         req.Active,
	}
}

// ClientResponse represents a client.
type ClientResponse struct {
	ID             string    `json:"id"`
	Identification string    `json:"identification"`
	Name           string    `json:"name"`
	LastName       *string   `json:"last_name,omitempty"`
	Email          *string   `json:"email,omitempty"`
	Phone          *string   `json:"phone,omitempty"`
	Active         bool      `json:"active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func clientResponse(c *domain.Client) ClientResponse {
	return ClientResponse{
		ID:             c.ID.String(),
		Identification: c.Identification,
		Name:           c.Name,
		LastName:       c.LastName,
		Email:          c.Email,
		Phone:          c.Phone,
		Active:         c.Active,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}
}

func clientResponses(clients []*domain.Client) []ClientResponse {
	out := make([]ClientResponse, 0, len(clients))
	for _, c := range clients {
		out = append(out, clientResponse(c))
	}
	return out
}

// orgScope resolves the caller and the organization in the path.
func orgScope(w http.ResponseWriter, r *http.Request) (ownerID, orgID uuid.UUID, ok bool) {
	if ownerID, ok = callerID(w, r); !ok {
		return
	}
	orgID, ok = httputil.URLParamUUID(w, r, "orgID")
	return
}

// CreateClient creates a client inside an organization.
// POST /v1/organizations/{orgID}/clients
func (h *Handler) CreateClient(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	var req ClientRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.Create(r.Context(), ownerID, orgID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, clientResponse(client))
}

// ListClients returns the organization's clients.
// GET /v1/organizations/{orgID}/clients?deleted=
func (h *Handler) ListClients(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clients, err := h.clients.List(r.Context(), ownerID, orgID, httputil.QueryBool(r, "deleted"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, clientResponses(clients))
}

// SearchClients matches clients by identification or name.
// GET /v1/organizations/{orgID}/clients/search?q=
func (h *Handler) SearchClients(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clients, err := h.clients.Search(r.Context(), ownerID, orgID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, clientResponses(clients))
}

// GetClient returns one client.
// GET /v1/organizations/{orgID}/clients/{clientID}
func (h *Handler) GetClient(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clientID, ok := httputil.URLParamUUID(w, r, "clientID")
	if !ok {
		return
	}
	client, err := h.clients.Get(r.Context(), ownerID, orgID, clientID)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, clientResponse(client))
}

// UpdateClient replaces a client's editable fields.
// PUT /v1/organizations/{orgID}/clients/{clientID}
func (h *Handler) UpdateClient(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clientID, ok := httputil.URLParamUUID(w, r, "clientID")
	if !ok {
		return
	}
	var req ClientRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	client, err := h.clients.Update(r.Context(), ownerID, orgID, clientID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, clientResponse(client))
}

// DeleteClient unlinks a client from the organization.
// DELETE /v1/organizations/{orgID}/clients/{clientID}
func (h *Handler) DeleteClient(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clientID, ok := httputil.URLParamUUID(w, r, "clientID")
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), ownerID, orgID, clientID); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// RestoreClient relinks a deleted client.
// POST /v1/organizations/{orgID}/clients/{clientID}/restore
func (h *Handler) RestoreClient(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	clientID, ok := httputil.URLParamUUID(w, r, "clientID")
	if !ok {
		return
	}
	if err := h.clients.Restore(r.Context(), ownerID, orgID, clientID); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
