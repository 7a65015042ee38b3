package proformas

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

// Service is the proforma API the handler drives.
type Service interface {
	Create(ctx context.Context, ownerID, orgID uuid.UUID, in directory.ProformaInput) (*domain.Proforma, error)
	Get(ctx context.Context, ownerID, orgID, id uuid.UUID) (*domain.Proforma, error)
	List(ctx context.Context, ownerID, orgID uuid.UUID, deleted bool, req domain.PageRequest) (*domain.Page[*domain.Proforma], error)
	Search(ctx context.Context, ownerID, orgID uuid.UUID, term string) ([]*domain.Proforma, error)
	Delete(ctx context.Context, ownerID, orgID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, orgID, id uuid.UUID) error
}

// Handler handles the proformas issued by an organization.
type Handler struct {
	logger    *slog.Logger
	proformas Service
}

// NewHandler creates a new proformas handler.
func NewHandler(logger *slog.Logger, proformas Service) *Handler {
	return &Handler{logger: logger, proformas: proformas}
}

// LineRequest is one quoted item. Amounts are decimal strings.
type LineRequest struct {
	ArticleCode string  `json:"article_code"`
	Quantity    int     `json:"quantity"`
	Discount    string  `json:"discount,omitempty"`
	ItemComment *string `json:"item_comment,omitempty"`
	UnitPrice   string  `json:"unit_price"`
	UnitTax     string  `json:"unit_tax,omitempty"`
	LineTotal   string  `json:"line_total"`
}

// ProformaRequest is the body of a create call. Totals are supplied by the
// client and stored as given.
type ProformaRequest struct {
	ClientID      uuid.UUID     `json:"client_id"`
	InvoiceNumber string        `json:"invoice_number"`
	Comment       *string       `json:"comment,omitempty"`
	Subtotal      string        `json:"subtotal"`
	Taxes         string        `json:"taxes,omitempty"`
	DiscountTotal string        `json:"discount_total,omitempty"`
	Total         string        `json:"total"`
	Lines         []LineRequest `json:"lines"`
}

func (req ProformaRequest) input() directory.ProformaInput {
	lines := make([]directory.ProformaLineInput, 0, len(req.Lines))
	for _, l := range req.Lines {
		lines = append(lines, directory.ProformaLineInput{
			ArticleCode: l.ArticleCode,
			Quantity:    l.Quantity,
			Discount:    l.Discount,
			ItemComment: l.ItemComment,
			UnitPrice:   l.UnitPrice,
			UnitTax:     l.UnitTax,
			LineTotal:   l.LineTotal,
		})
	}
	return directory.ProformaInput{
		ClientID:      req.ClientID,
		InvoiceNumber: req.InvoiceNumber,
		Comment:       req.Comment,
		Subtotal:      req.Subtotal,
		Taxes:         req.Taxes,
		DiscountTotal: req.DiscountTotal,
		Total:         req.Total,
		Lines:         lines,
	}
}

// LineResponse is one quoted item.
type LineResponse struct {
	ArticleCode string  `json:"article_code"`
	Quantity    int     `json:"quantity"`
	Discount    string  `json:"discount"`
	ItemComment *string `json:"item_comment,omitempty"`
	UnitPrice   string  `json:"unit_price"`
	UnitTax     string  `json:"unit_tax"`
	LineTotal   string  `json:"line_total"`
}

// ProformaResponse represents a proforma. Lines are omitted from lists and
// searches.
type ProformaResponse struct {
	ID             string         `json:"id"`
	OrganizationID string         `json:"organization_id"`
	ClientID       string         `json:"client_id"`
	InvoiceNumber  string         `json:"invoice_number"`
	Comment        *string        `json:"comment,omitempty"`
	Subtotal       string         `json:"subtotal"`
	Taxes          string         `json:"taxes"`
	DiscountTotal  string         `json:"discount_total"`
	Total          string         `json:"total"`
	Lines          []LineResponse `json:"lines,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      *time.Time     `json:"deleted_at,omitempty"`
}

func proformaResponse(p *domain.Proforma) ProformaResponse {
	var lines []LineResponse
	for _, l := range p.Lines {
		lines = append(lines, LineResponse{
			ArticleCode: l.ArticleCode,
			Quantity:    l.Quantity,
			Discount:    l.Discount,
			ItemComment: l.ItemComment,
			UnitPrice:   l.UnitPrice,
			UnitTax:     l.UnitTax,
			LineTotal:   l.LineTotal,
		})
	}
	return ProformaResponse{
		ID:             p.ID.String(),
		OrganizationID: p.OrganizationID.String(),
		ClientID:       p.ClientID.String(),
		InvoiceNumber:  p.InvoiceNumber,
		Comment:        p.Comment,
		Subtotal:       p.Subtotal,
		Taxes:          p.Taxes,
		DiscountTotal:  p.DiscountTotal,
		Total:          p.Total,
		Lines:          lines,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
		DeletedAt:      p.DeletedAt,
	}
}

func proformaResponses(proformas []*domain.Proforma) []ProformaResponse {
	out := make([]ProformaResponse, 0, len(proformas))
	for _, p := range proformas {
		out = append(out, proformaResponse(p))
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

func proformaScope(w http.ResponseWriter, r *http.Request) (ownerID, orgID, id uuid.UUID, ok bool) {
	if ownerID, orgID, ok = orgScope(w, r); !ok {
		return
	}
	id, ok = httputil.URLParamUUID(w, r, "proformaID")
	return
}

// Create issues a proforma.
// POST /v1/organizations/{orgID}/proformas
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	var req ProformaRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	p, err := h.proformas.Create(r.Context(), ownerID, orgID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	h.logger.InfoContext(r.Context(), "proforma issued",
		"organization_id", orgID.String(),
		"proforma_id", p.ID.String(),
		"invoice_number", p.InvoiceNumber,
		"lines", len(p.Lines),
	)
	httputil.JSON(w, http.StatusCreated, proformaResponse(p))
}

// List returns one page of the organization's proformas, newest first.
// GET /v1/organizations/{orgID}/proformas?deleted=&page=&page_size=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	page, err := h.proformas.List(r.Context(), ownerID, orgID, httputil.QueryBool(r, "deleted"), httputil.PageRequestFromQuery(r))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, domain.Page[ProformaResponse]{
		Items:      proformaResponses(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// Search matches proformas by invoice number, comment or client name.
// GET /v1/organizations/{orgID}/proformas/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, ok := orgScope(w, r)
	if !ok {
		return
	}
	proformas, err := h.proformas.Search(r.Context(), ownerID, orgID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, proformaResponses(proformas))
}

// Get returns one proforma with its lines.
// GET /v1/organizations/{orgID}/proformas/{proformaID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := proformaScope(w, r)
	if !ok {
		return
	}
	p, err := h.proformas.Get(r.Context(), ownerID, orgID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, proformaResponse(p))
}

// Delete soft-deletes a proforma.
// DELETE /v1/organizations/{orgID}/proformas/{proformaID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := proformaScope(w, r)
	if !ok {
		return
	}
	if err := h.proformas.Delete(r.Context(), ownerID, orgID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/organizations/{orgID}/proformas/{proformaID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, orgID, id, ok := proformaScope(w, r)
	if !ok {
		return
	}
	if err := h.proformas.Restore(r.Context(), ownerID, orgID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
