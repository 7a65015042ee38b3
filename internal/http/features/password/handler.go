package password

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/domain"
)

// ResetRequestedMessage is returned for every well-formed reset request,
// whether or not the address belongs to an account.
const ResetRequestedMessage = "if an account exists for this email, a password reset link has been sent"

// Resetter is the password reset API the handler drives.
type Resetter interface {
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, token, newPassword string) error
}

// Handler handles password reset endpoints.
type Handler struct {
	logger *slog.Logger
	resets Resetter
}

// NewHandler creates a new password handler.
func NewHandler(logger *slog.Logger, resets Resetter) *Handler {
	return &Handler{
		logger: logger,
		resets: resets,
	}
}

// ResetRequest represents a password reset request.
type ResetRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest redeems a reset token.
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// RequestPasswordReset mails a reset link.
// POST /v1/auth/password/reset-request
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	err := h.resets.RequestPasswordReset(r.Context(), req.Email)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrInvalidEmail):
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	case errors.Is(err, domain.ErrUserNotFound):
		h.logger.InfoContext(r.Context(), "password reset requested for unknown email")
	default:
		// The service already logged the failure. Answering 500 here
		// would tell the caller that the account exists.
		h.logger.WarnContext(r.Context(), "password reset request not delivered", "kind", domain.FailureKind(err))
	}

	httputil.JSON(w, http.StatusOK, MessageResponse{Message: ResetRequestedMessage})
}

// ResetPassword sets a new password using a reset token.
// POST /v1/auth/password/reset
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Token == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "email, token and new_password are required")
		return
	}

	if err := h.resets.ResetPassword(r.Context(), req.Email, req.Token, req.NewPassword); err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			err = domain.ErrPasswordResetNotFound
		}
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, MessageResponse{Message: "password has been reset"})
}
