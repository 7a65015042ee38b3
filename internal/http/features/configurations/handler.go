package configurations

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/http/middleware"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/domain"
)

// Service is the per-user settings API the handler drives.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]*domain.Configuration, error)
	Get(ctx context.Context, userID uuid.UUID, key string) (*domain.Configuration, error)
	Set(ctx context.Context, userID uuid.UUID, key, value string, description *string) (*domain.Configuration, error)
}

// Handler handles the caller's own settings.
type Handler struct {
	logger  *slog.Logger
	configs Service
}

// NewHandler creates a new configurations handler.
func NewHandler(logger *slog.Logger, configs Service) *Handler {
	return &Handler{logger: logger, configs: configs}
}

// SetRequest represents a settings write.
type SetRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

// ConfigurationResponse represents one setting.
type ConfigurationResponse struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Description *string   `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func configurationResponse(c *domain.Configuration) ConfigurationResponse {
	return ConfigurationResponse{
		Key:         c.Key,
		Value:       c.Value,
		Description: c.Description,
		UpdatedAt:   c.UpdatedAt,
	}
}

// RegisterRoutes registers the settings routes behind the auth middleware.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/v1/configurations", h.List)
	r.Get("/v1/configurations/{key}", h.Get)
	r.Put("/v1/configurations/{key}", h.Set)
}

// List returns all of the caller's settings.
// GET /v1/configurations
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	configs, err := h.configs.List(r.Context(), userID)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	out := make([]ConfigurationResponse, 0, len(configs))
	for _, c := range configs {
		out = append(out, configurationResponse(c))
	}
	httputil.JSON(w, http.StatusOK, out)
}

// Get returns one setting.
// GET /v1/configurations/{key}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	c, err := h.configs.Get(r.Context(), userID, chi.URLParam(r, "key"))
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, configurationResponse(c))
}

// Set creates or replaces one setting.
// PUT /v1/configurations/{key}
func (h *Handler) Set(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req SetRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	c, err := h.configs.Set(r.Context(), userID, chi.URLParam(r, "key"), req.Value, req.Description)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}
	httputil.JSON(w, http.StatusOK, configurationResponse(c))
}
