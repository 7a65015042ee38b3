package session

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/domain"
)

// Manager is the session API the handler drives.
type Manager interface {
	Login(ctx context.Context, email, password, fingerprint string) (*domain.LoginResult, error)
	RefreshSession(ctx context.Context, rawRefreshToken, fingerprint string) (*domain.TokenPair, error)
	RevokeSession(ctx context.Context, rawRefreshToken, fingerprint string) error
	ResolveCurrentUser(ctx context.Context, rawRefreshToken, fingerprint string) (*domain.UserProfile, error)
}

// Handler handles session endpoints. The refresh token only ever travels in
// the HttpOnly cookie; access tokens are returned in the body.
type Handler struct {
	logger       *slog.Logger
	sessions     Manager
	cookieConfig httputil.CookieConfig
	now          func() time.Time
}

// NewHandler creates a new session handler.
func NewHandler(logger *slog.Logger, sessions Manager, cookieConfig httputil.CookieConfig) *Handler {
	return &Handler{
		logger:       logger,
		sessions:     sessions,
		cookieConfig: cookieConfig,
		now:          time.Now,
	}
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse represents a token response.
type TokenResponse struct {
	AccessToken string              `json:"access_token"`
	TokenType   string              `json:"token_type"`
	ExpiresIn   int                 `json:"expires_in"`
	User        *domain.UserProfile `json:"user,omitempty"`
}

// Login authenticates with email and password and opens a session.
// POST /v1/auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	fingerprint, ok := httputil.GetFingerprint(r)
	if !ok {
		httputil.WriteDomainError(w, r, h.logger, domain.ErrFingerprintRequired)
		return
	}

	var req LoginRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	result, err := h.sessions.Login(r.Context(), req.Email, req.Password, fingerprint)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}

	httputil.SetRefreshCookie(w, result.Tokens.RefreshToken, h.cookieConfig, h.now())
	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.Tokens.AccessToken,
		TokenType:   result.Tokens.TokenType,
		ExpiresIn:   result.Tokens.ExpiresIn,
		User:        result.User,
	})
}

// Refresh rotates the refresh token and issues a new access token.
// POST /v1/auth/refresh
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	refreshToken, fingerprint, ok := h.credentials(w, r)
	if !ok {
		return
	}

	tokens, err := h.sessions.RefreshSession(r.Context(), refreshToken, fingerprint)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.SetRefreshCookie(w, tokens.RefreshToken, h.cookieConfig, h.now())
	httputil.JSON(w, http.StatusOK, TokenResponse{
		AccessToken: tokens.AccessToken,
		TokenType:   tokens.TokenType,
		ExpiresIn:   tokens.ExpiresIn,
	})
}

// Logout revokes the session behind the cookie.
// POST /v1/auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	refreshToken, fingerprint, ok := h.credentials(w, r)
	if !ok {
		return
	}

	if err := h.sessions.RevokeSession(r.Context(), refreshToken, fingerprint); err != nil {
		h.fail(w, r, err)
		return
	}

	httputil.ClearRefreshCookie(w, h.cookieConfig)
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the profile of the session owner.
// GET /v1/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	refreshToken, fingerprint, ok := h.credentials(w, r)
	if !ok {
		return
	}

	profile, err := h.sessions.ResolveCurrentUser(r.Context(), refreshToken, fingerprint)
	if err != nil {
		httputil.WriteDomainError(w, r, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, profile)
}

// credentials reads the fingerprint header and the refresh cookie, writing
// 400 or 401 when either is missing.
func (h *Handler) credentials(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	fingerprint, ok := httputil.GetFingerprint(r)
	if !ok {
		httputil.WriteDomainError(w, r, h.logger, domain.ErrFingerprintRequired)
		return "", "", false
	}
	refreshToken, ok := httputil.GetRefreshTokenFromCookie(r)
	if !ok {
		httputil.Error(w, http.StatusUnauthorized, httputil.MsgInvalidSession)
		return "", "", false
	}
	return refreshToken, fingerprint, true
}

// fail writes the error and drops the cookie when the session is unusable.
// A fingerprint mismatch leaves the cookie alone: the session is still valid
// for its own device.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsAuthFailure(err) && !errors.Is(err, domain.ErrFingerprintMismatch) {
		httputil.ClearRefreshCookie(w, h.cookieConfig)
	}
	httputil.WriteDomainError(w, r, h.logger, err)
}
