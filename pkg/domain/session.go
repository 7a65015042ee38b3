package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// SelectorLen is the hex length of a refresh-token selector (16 random bytes).
	SelectorLen = 32
	// ValidatorLen is the hex length of a refresh-token validator (32 random bytes).
	ValidatorLen = 64

	refreshTokenSep = "."
	storedTokenSep  = ":"
)

// Session represents a refresh session bound to a device fingerprint.
// StoredToken has the form "<selector>:<hashedValidator>".
type Session struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	StoredToken string
	Fingerprint string
	ExpiresAt   time.Time
	RevokedAt   *time.Time
	CreatedAt   time.Time
}

// IsExpired reports whether the session expiry is at or before now.
func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// HashedValidator returns the hash half of the stored token.
func (s *Session) HashedValidator() (string, error) {
	parts := strings.Split(s.StoredToken, storedTokenSep)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", ErrCorruptStoredToken
	}
	return parts[1], nil
}

// RefreshToken is a parsed client refresh token "<selector>.<validator>".
type RefreshToken struct {
	Selector  string
	Validator string
}

// ParseRefreshToken splits a raw refresh token into selector and validator.
// Both halves must be lowercase hex of the generated lengths, so no
// client-controlled pattern characters reach the selector prefix lookup.
func ParseRefreshToken(raw string) (RefreshToken, error) {
	parts := strings.Split(raw, refreshTokenSep)
	if len(parts) != 2 {
		return RefreshToken{}, ErrMalformedToken
	}
	if len(parts[0]) != SelectorLen || !isLowerHex(parts[0]) {
		return RefreshToken{}, ErrMalformedToken
	}
	if len(parts[1]) != ValidatorLen || !isLowerHex(parts[1]) {
		return RefreshToken{}, ErrMalformedToken
	}
	return RefreshToken{Selector: parts[0], Validator: parts[1]}, nil
}

// String returns the wire form sent to the client.
func (t RefreshToken) String() string {
	return t.Selector + refreshTokenSep + t.Validator
}

// StoredTokenFor builds the persisted token form.
func StoredTokenFor(selector, hashedValidator string) string {
	return selector + storedTokenSep + hashedValidator
}

// StoredTokenPrefix is the prefix every stored token for selector starts with.
func StoredTokenPrefix(selector string) string {
	return selector + storedTokenSep
}

func isLowerHex(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// TokenPair represents the access and refresh token pair.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// LoginResult is returned by a successful password login.
type LoginResult struct {
	Tokens *TokenPair
	User   *UserProfile
}
