package httputil

import (
	"net/http"
	"time"
)

const (
	// RefreshCookieName carries the raw "<selector>.<validator>" refresh token.
	RefreshCookieName = "refreshToken"
	// FingerprintHeader carries the client device fingerprint.
	FingerprintHeader = "Fingerprint"

	defaultRefreshCookieTTL = 7 * 24 * time.Hour
)

// CookieConfig holds cookie configuration.
type CookieConfig struct {
	Domain   string
	Path     string
	Secure   bool
	SameSite http.SameSite
	TTL      time.Duration
}

// NewCookieConfig returns the refresh cookie settings. The cookie is sent
// cross-site (SameSite=None), which browsers only accept together with
// Secure; insecure local setups fall back to Lax.
func NewCookieConfig(domain string, secure bool, ttl time.Duration) CookieConfig {
	if ttl <= 0 {
		ttl = defaultRefreshCookieTTL
	}
	sameSite := http.SameSiteNoneMode
	if !secure {
		sameSite = http.SameSiteLaxMode
	}
	return CookieConfig{
		Domain:   domain,
		Path:     "/",
		Secure:   secure,
		SameSite: sameSite,
		TTL:      ttl,
	}
}

// SetRefreshCookie stores the refresh token in an HttpOnly cookie.
func SetRefreshCookie(w http.ResponseWriter, refreshToken string, cfg CookieConfig, now time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    refreshToken,
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  now.Add(cfg.TTL),
		MaxAge:   int(cfg.TTL.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// ClearRefreshCookie overwrites the refresh cookie with an empty, expired one.
func ClearRefreshCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshCookieName,
		Value:    "",
		Path:     cfg.Path,
		Domain:   cfg.Domain,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: cfg.SameSite,
	})
}

// GetRefreshTokenFromCookie extracts the refresh token from its cookie.
func GetRefreshTokenFromCookie(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(RefreshCookieName)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	return cookie.Value, true
}

// GetFingerprint returns the Fingerprint header exactly as sent.
func GetFingerprint(r *http.Request) (string, bool) {
	fp := r.Header.Get(FingerprintHeader)
	return fp, fp != ""
}
