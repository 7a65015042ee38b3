package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/tendant/proforma-api/pkg/domain"
)

// Opaque bodies for authentication failures.
const (
	MsgInvalidSession     = "invalid session"
	MsgInvalidCredentials = "invalid credentials"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes a JSON error body.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorResponse{Error: message})
}

// DecodeJSON decodes a single JSON object from the request body. It writes
// the error response itself and returns false when decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	err := dec.Decode(dst)
	if err == nil && dec.Decode(&struct{}{}) != io.EOF {
		err = errors.New("trailing data")
	}
	if err == nil {
		return true
	}

	var maxBytes *http.MaxBytesError
	if errors.As(err, &maxBytes) {
		Error(w, http.StatusRequestEntityTooLarge, "request body too large")
		return false
	}
	Error(w, http.StatusBadRequest, "invalid request body")
	return false
}

// WriteDomainError maps a service error to a status code and a body that
// reveals nothing beyond the error class. Internal errors are logged.
func WriteDomainError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError && logger != nil {
		logger.ErrorContext(r.Context(), "request failed",
			"method", r.Method, "path", r.URL.Path, "error", err)
	}
	Error(w, status, message)
}

func classify(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, MsgInvalidCredentials
	case domain.IsAuthFailure(err):
		return http.StatusUnauthorized, MsgInvalidSession
	case errors.Is(err, domain.ErrFingerprintRequired):
		return http.StatusBadRequest, "fingerprint header is required"
	case errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrPasswordResetNotFound),
		errors.Is(err, domain.ErrPasswordResetExpired):
		return http.StatusBadRequest, "invalid or expired reset token"
	case errors.Is(err, domain.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, domain.ErrOrganizationNotFound):
		return http.StatusNotFound, "organization not found"
	case errors.Is(err, domain.ErrClientNotFound):
		return http.StatusNotFound, "client not found"
	case errors.Is(err, domain.ErrConfigurationNotFound):
		return http.StatusNotFound, "configuration not found"
	case errors.Is(err, domain.ErrArticleNotFound):
		return http.StatusNotFound, "article not found"
	case errors.Is(err, domain.ErrInventoryNotFound):
		return http.StatusNotFound, "inventory not found"
	case errors.Is(err, domain.ErrProformaNotFound):
		return http.StatusNotFound, "proforma not found"
	case errors.Is(err, domain.ErrPrintingTemplateNotFound):
		return http.StatusNotFound, "printing template not found"
	case errors.Is(err, domain.ErrUserAlreadyExists):
		return http.StatusConflict, "user already exists"
	case errors.Is(err, domain.ErrOrganizationAlreadyExists):
		return http.StatusConflict, "organization already exists"
	case errors.Is(err, domain.ErrClientAlreadyExists):
		return http.StatusConflict, "client already exists"
	case errors.Is(err, domain.ErrArticleAlreadyExists):
		return http.StatusConflict, "barcode already in use"
	case errors.Is(err, domain.ErrProformaAlreadyExists):
		return http.StatusConflict, "invoice number already in use"
	case errors.Is(err, domain.ErrPrintingTemplateAlreadyExists):
		return http.StatusConflict, "printing template already exists"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
