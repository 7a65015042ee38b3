package articles

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/http/middleware"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/directory"
	"github.com/tendant/proforma-api/pkg/domain"
)

// Service is the article catalogue API the handler drives.
type Service interface {
	Create(ctx context.Context, ownerID uuid.UUID, in directory.ArticleInput) (*domain.Article, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Article, error)
	GetByBarcode(ctx context.Context, ownerID uuid.UUID, barcode string) (*domain.Article, error)
	List(ctx context.Context, ownerID uuid.UUID, deleted bool, req domain.PageRequest) (*domain.Page[*domain.Article], error)
	Search(ctx context.Context, ownerID uuid.UUID, term string) ([]*domain.Article, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, in directory.ArticleInput) (*domain.Article, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
	Restore(ctx context.Context, ownerID, id uuid.UUID) error
}

// Handler handles the caller's article catalogue.
type Handler struct {
	logger   *slog.Logger
	articles Service
}

// NewHandler creates a new articles handler.
func NewHandler(logger *slog.Logger, articles Service) *Handler {
	return &Handler{logger: logger, articles: articles}
}

// ArticleRequest is the body of create and update calls. Decimal fields are
// JSON strings such as "12.50".
type ArticleRequest struct {
	SourceInfo       *string  `json:"source_info,omitempty"`
	Description      string   `json:"description"`
	TaxPercentage    string   `json:"tax_percentage"`
	Cost             string   `json:"cost"`
	ProfitPercentage string   `json:"profit_percentage"`
	Active           *bool    `json:"active,omitempty"`
	Barcodes         []string `json:"barcodes,omitempty"`
}

func (req ArticleRequest) input() directory.ArticleInput {
	return directory.ArticleInput{
		SourceInfo:       req.SourceInfo,
		Description:      req.Description,
		TaxPercentage:    req.TaxPercentage,
		Cost:             req.Cost,
		ProfitPercentage: req.ProfitPercentage,
		Active:           req.Active,
		Barcodes:         req.Barcodes,
	}
}

// ArticleResponse represents an article.
type ArticleResponse struct {
	ID               string     `json:"id"`
	SourceInfo       *string    `json:"source_info,omitempty"`
	Description      string     `json:"description"`
	TaxPercentage    string     `json:"tax_percentage"`
	Cost             string     `json:"cost"`
	ProfitPercentage string     `json:"profit_percentage"`
	Active           bool       `json:"active"`
	Barcodes         []string   `json:"barcodes"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
}

func articleResponse(a *domain.Article) ArticleResponse {
	barcodes := a.Barcodes
	if barcodes == nil {
		barcodes = []string{}
	}
	return ArticleResponse{
		ID:               a.ID.String(),
		SourceInfo:       a.SourceInfo,
		Description:      a.Description,
		TaxPercentage:    a.TaxPercentage,
		Cost:             a.Cost,
		ProfitPercentage: a.ProfitPercentage,
		Active:           a.Active,
		Barcodes:         barcodes,
		CreatedAt:        a.CreatedAt,
		UpdatedAt:        a.UpdatedAt,
		DeletedAt:        a.DeletedAt,
	}
}

func articleResponses(articles []*domain.Article) []ArticleResponse {
	out := make([]ArticleResponse, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleResponse(a))
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

// articleScope resolves the caller and the article in the path.
func articleScope(w http.ResponseWriter, r *http.Request) (ownerID, id uuid.UUID, ok bool) {
	if ownerID, ok = callerID(w, r); !ok {
		return
	}
	id, ok = httputil.URLParamUUID(w, r, "articleID")
	return
}

// Create adds an article to the caller's catalogue.
// POST /v1/articles
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	var req ArticleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	article, err := h.articles.Create(r.Context(), ownerID, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusCreated, articleResponse(article))
}

// List returns one page of the caller's articles.
// GET /v1/articles?deleted=&page=&page_size=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	page, err := h.articles.List(r.Context(), ownerID, httputil.QueryBool(r, "deleted"), httputil.PageRequestFromQuery(r))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, domain.Page[ArticleResponse]{
		Items:      articleResponses(page.Items),
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// Search matches articles by description, source or barcode.
// GET /v1/articles/search?q=
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	articles, err := h.articles.Search(r.Context(), ownerID, r.URL.Query().Get("q"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, articleResponses(articles))
}

// GetByBarcode looks an article up by one of its barcodes.
// GET /v1/articles/barcode/{barcode}
func (h *Handler) GetByBarcode(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := callerID(w, r)
	if !ok {
		return
	}
	article, err := h.articles.GetByBarcode(r.Context(), ownerID, chi.URLParam(r, "barcode"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, articleResponse(article))
}

// Get returns one article.
// GET /v1/articles/{articleID}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := articleScope(w, r)
	if !ok {
		return
	}
	article, err := h.articles.Get(r.Context(), ownerID, id)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, articleResponse(article))
}

// Update replaces an article's fields. Omitting barcodes keeps them.
// PUT /v1/articles/{articleID}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := articleScope(w, r)
	if !ok {
		return
	}
	var req ArticleRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}

	article, err := h.articles.Update(r.Context(), ownerID, id, req.input())
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, articleResponse(article))
}

// Delete soft-deletes an article.
// DELETE /v1/articles/{articleID}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := articleScope(w, r)
	if !ok {
		return
	}
	if err := h.articles.Delete(r.Context(), ownerID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Restore undoes a soft delete.
// POST /v1/articles/{articleID}/restore
func (h *Handler) Restore(w http.ResponseWriter, r *http.Request) {
	ownerID, id, ok := articleScope(w, r)
	if !ok {
		return
	}
	if err := h.articles.Restore(r.Context(), ownerID, id); err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
