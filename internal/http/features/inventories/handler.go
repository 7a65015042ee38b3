package inventories

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

// Service is the inventory API the handler drives.
type Service interface {
	Create(ctx context.Context, ownerID, orgID uuid.UUID, in directory.InventoryInput) (*domain.Inventory, error)
	Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Inventory, error)
	List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool) ([]*domain.Inventory, error)
	Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Inventory, error)
	Update(ctx context.Context, ownerID, orgID, id uuid.UUID, in directory.InventoryInput) (*domain.Inventory, error)
	AddArticle(ctx context.Context, ownerID, orgID, id uuid.UUID, barcode string, quantity int) (*domain.Inventory, error)
	Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error
}

// Handler handles the inventories of an organization.
type Handler struct {
	logger      *slog.Logger
	inventories Service
}

// NewHandler creates a new inventories handler.
func NewHandler(logger *slog.Logger, inventories Service) *Handler {
	return &Handler{logger: logger, inventories: inventories}
}

// DetailRequest is the counted stock of one article.
type DetailRequest struct {
	ArticleID uuid.UUID `json:"article_id"`
	Quantity  int       `json:"quantity"`
	Notes     *string   `json:"notes,omitempty"`
}

// InventoryRequest is the body of create and update calls. Details replace
// the whole stock list.
type InventoryRequest struct {
	Name    string          `json:"name"`
	Details []DetailRequest `json:"details,omitempty"`
}

func (req InventoryRequest) input() directory.InventoryInput {
	details := make([]directory.InventoryDetailInput, 0, len(req.Details))
	for _, d := range req.Details {
		details = append(details, directory.InventoryDetailInput{
			ArticleID: d.ArticleID,
			Quantity:  d.Quantity,
			Notes:     d.Notes,
		})
	}
	return directory.InventoryInput{Name: req.Name, Details: details}
}

// AddArticleRequest adds units of the article with the given barcode.
type AddArticleRequest struct {
	Barcode  string `json:"barcode"`
	Quantity int    `json:"quantity"`
}

// DetailResponse is one stocked article.
type DetailResponse struct {
	ArticleID   string  `json:"article_id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	Notes       *string `json:"notes,omitempty"`
}

// InventoryResponse represents an inventory.
type InventoryResponse struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	Name           string           `json:"name"`
	Details        []DetailResponse `json:"details"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
	DeletedAt      *time.Time       `json:"deleted_at,omitempty"`
}

func inventoryResponse(inv *domain.Inventory) InventoryResponse {
	details := make([]DetailResponse, 0, len(inv.Details))
	for _, d := range inv.Details {
		details = append(details, DetailResponse{
			ArticleID:   d.ArticleID.String(),
			Description: d.Description,
			Quantity:    d.Quantity,
			Notes:       d.Notes,
		})
	}
	return InventoryResponse{
		ID:             inv.ID.String(),
		OrganizationID: inv.OrganizationID.String(),
		Name:           inv.Name,
		Details:        details,
		CreatedAt:      inv.CreatedAt,
		UpdatedAt:      inv.UpdatedAt,
		DeletedAt:      inv.DeletedAt,
	}
}

func inventoryResponses(inventories []*domain.Inventory) []InventoryResponse {
	out := make([]InventoryResponse, 0, len(inventories))
	for _, inv := range inventories {
		out = append(out, inventoryResponse(inv))
	}
	return out
}

// orgScope resolves the caller and the organization in the path.
func orgScope(w http.ResponseWriter, r *http.Request) (ownerID, orgID uuid.UUID, ok bool) {
	if ownerID, ok = middleware.GetUserID(r.Context()); !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	orgID, ok = httputil.URLParamUUID(w, r, "orgID")
	return
}

func inventoryScope(w http.ResponseWriter, r *http.Request) (ownerID, orgID, id uuid.UUID, ok bool) {
	if ownerID, orgID, ok = orgScope(w, r); !ok {
		return
	}
	id, ok = httputil.URLParamUUID(w, r, "inventoryID")
	return
}

// Create stores an inventory.
// POST /v1/organizations/{orgID}/inventories
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	var req InventoryRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.inventories.Create(r.Context(), ownerID, orgID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, inventoryResponse(inv))
}

// List returns the organization's inventories.
// GET /v1/organizations/{orgID}/inventories?deleted=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	inventories, err := h.inventories.List(r.Context(), ownerID, orgID, httputil.QueryBool(r, "deleted"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inventoryResponses(inventories))
}

// Search matches inventories by name or stocked article.
// GET /v1/organizations/{orgID}/inventories/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	inventories, err := h.inventories.Search(r.Context(), ownerID, orgID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inventoryResponses(inventories))
}

// Get returns one inventory with its stock.
// GET /v1/organizations/{orgID}/inventories/{inventoryID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := inventoryScope(w, r)
	if !ok {
		return
	}
	inv, err := h.inventories.Get(r.Context(), ownerID, orgID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inventoryResponse(inv))
}

// Update renames an inventory and replaces its stock.
// PUT /v1/organizations/{orgID}/inventories/{inventoryID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := inventoryScope(w, r)
	if !ok {
		return
	}
	var req InventoryRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.inventories.Update(r.Context(), ownerID, orgID, id, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inventoryResponse(inv))
}

// AddArticle adds stock of an article found by barcode.
// POST /v1/organizations/{orgID}/inventories/{inventoryID}/articles
func (h *Handler) AddArticle(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := inventoryScope(w, r)
	if !ok {
		return
	}
	var req AddArticleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	inv, err := h.inventories.AddArticle(r.Context(), ownerID, orgID, id, req.Barcode, req.Quantity)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, inventoryResponse(inv))
}

// Delete soft-deletes an inventory.
// DELETE /v1/organizations/{orgID}/inventories/{inventoryID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := inventoryScope(w, r)
	if !ok {
		return
	}
	if err := h.inventories.Delete(r.Context(), ownerID, orgID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/organizations/{orgID}/inventories/{inventoryID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := inventoryScope(w, r)
	if !ok {
		return
	}
	if err := h.inventories.Restore(r.Context(), ownerID, orgID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
