package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

type contextKey string

// UserIDKey is the context key for the authenticated user ID.
const UserIDKey contextKey = "user_id"

// TokenVerifier validates access tokens.
type TokenVerifier interface {
	Verify(token string) (*auth.AccessTokenClaims, error)
}

// AccountChecker reports whether the owner of a token may still act.
// Deleted or deactivated accounts fail with domain.ErrUserNotFound or an
// auth failure.
type AccountChecker interface {
	CheckAccount(ctx context.Context, userID uuid.UUID) error
}

// Auth creates middleware that requires a valid "Authorization: Bearer"
// access token and stores the caller's user ID in the request context.
// When accounts is non-nil the token's owner is checked on every request,
// so deactivation takes effect before the token expires.
func Auth(verifier TokenVerifier, accounts AccountChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := bearerToken(r)
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, "missing authorization")
				return
			}

			claims, err := verifier.Verify(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			if accounts != nil {
				err := accounts.CheckAccount(r.Context(), userID)
				switch {
				case err == nil:
				case errors.Is(err, domain.ErrUserNotFound), domain.IsAuthFailure(err):
					httputil.Error(w, http.StatusUnauthorized, "invalid or expired token")
					return
				default:
					httputil.Error(w, http.StatusInternalServerError, "internal server error")
					return
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) (string, bool) {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

// GetUserID extracts the user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
