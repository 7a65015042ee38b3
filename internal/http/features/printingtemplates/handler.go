package printingtemplates

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

// Service is the printing template API the handler drives.
type Service interface {
	Create(ctx context.Context, userID uuid.UUID, in directory.PrintingTemplateInput) (*domain.PrintingTemplate, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*domain.PrintingTemplate, error)
	List(ctx context.Context, userID uuid.UUID, deleted bool) ([]*domain.PrintingTemplate, error)
	Search(ctx context.Context, userID uuid.UUID, term string) ([]*domain.PrintingTemplate, error)
	Update(ctx context.Context, userID, id uuid.UUID, in directory.PrintingTemplateInput) (*domain.PrintingTemplate, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	Restore(ctx context.Context, userID, id uuid.UUID) error
}

// Handler handles the caller's printing templates.
type Handler struct {
	logger    *slog.Logger
	templates Service
}

// NewHandler creates a new printing templates handler.
func NewHandler(logger *slog.Logger, templates Service) *Handler {
	return &Handler{logger: logger, templates: templates}
}

// TemplateRequest is the body of create and update calls.
type TemplateRequest struct {
	Name            string  `json:"name"`
	PageOrientation *string `json:"page_orientation,omitempty"`
	ColorMode       *string `json:"color_mode,omitempty"`
	Copies          *int    `json:"copies,omitempty"`
	PaperSize       *string `json:"paper_size,omitempty"`
	HeaderHTML      *string `json:"header_html,omitempty"`
	FooterHTML      *string `json:"footer_html,omitempty"`
}

func (req TemplateRequest) input() directory.PrintingTemplateInput {
	return directory.PrintingTemplateInput{
		Name:            req.Name,
		PageOrientation: req.PageOrientation,
		ColorMode:       req.ColorMode,
		Copies:          req.Copies,
		PaperSize:       req.PaperSize,
		HeaderHTML:      req.HeaderHTML,
		FooterHTML:      req.FooterHTML,
	}
}

// TemplateResponse represents a printing template.
type TemplateResponse struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	PageOrientation *string    `json:"page_orientation,omitempty"`
	ColorMode       *string    `json:"color_mode,omitempty"`
	Copies          int        `json:"copies"`
	PaperSize       *string    `json:"paper_size,omitempty"`
	HeaderHTML      *string    `json:"header_html,omitempty"`
	FooterHTML      *string    `json:"footer_html,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	DeletedAt       *time.Time `json:"deleted_at,omitempty"`
}

func templateResponse(t *domain.PrintingTemplate) TemplateResponse {
	return TemplateResponse{
		ID:              t.ID.String(),
		Name:            t.Name,
		PageOrientation: t.PageOrientation,
		ColorMode:       t.ColorMode,
		Copies:          t.Copies,
		PaperSize:       t.PaperSize,
		HeaderHTML:      t.HeaderHTML,
		FooterHTML:      t.FooterHTML,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		DeletedAt:       t.DeletedAt,
	}
}

func templateResponses(templates []*domain.PrintingTemplate) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateResponse(t))
	}
	return out
}

func callerID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
	}
	return userID, ok
}

func templateScope(w http.ResponseWriter, r *http.Request) (userID, id uuid.UUID, ok bool) {
	if userID, ok = callerID(w, r); !ok {
		return
	}
	id, ok = httputil.URLParamUUID(w, r, "templateID")
	return
}

// Create stores a template for the caller.
// POST /v1/printing-templates
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req TemplateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	t, err := h.templates.Create(r.Context(), userID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, templateResponse(t))
}

// List returns the caller's templates.
// GET /v1/printing-templates?deleted=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	templates, err := h.templates.List(r.Context(), userID, httputil.QueryBool(r, "deleted"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, templateResponses(templates))
}

// Search matches templates by name.
// GET /v1/printing-templates/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	userID, ok := callerID(w, r)
	if !ok {
		return
	}
	templates, err := h.templates.Search(r.Context(), userID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, templateResponses(templates))
}

// Get returns one template.
// GET /v1/printing-templates/{templateID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := templateScope(w, r)
	if !ok {
		return
	}
	t, err := h.templates.Get(r.Context(), userID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, templateResponse(t))
}

// Update replaces a template.
// PUT /v1/printing-templates/{templateID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := templateScope(w, r)
	if !ok {
		return
	}
	var req TemplateRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	t, err := h.templates.Update(r.Context(), userID, id, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, templateResponse(t))
}

// Delete soft-deletes a template.
// DELETE /v1/printing-templates/{templateID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := templateScope(w, r)
	if !ok {
		return
	}
	if err := h.templates.Delete(r.Context(), userID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/printing-templates/{templateID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	userID, id, ok := templateScope(w, r)
	if !ok {
		return
	}
	if err := h.templates.Restore(r.Context(), userID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
