package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// DefaultAccessTokenTTL is used when no access token lifetime is configured.
const DefaultAccessTokenTTL = 15 * time.Minute

// TokenSigner mints and verifies short-lived access tokens.
type TokenSigner interface {
	Issue(user *domain.User, sessionID uuid.UUID, now time.Time) (token string, expiresAt time.Time, err error)
	Verify(token string) (*AccessTokenClaims, error)
	TTL() time.Duration
}

// AccessTokenClaims represents the claims in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// UserID parses the subject claim.
func (c *AccessTokenClaims) UserID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}

// JWTSigner signs HS256 access tokens.
type JWTSigner struct {
	secret []byte
	issuer string
	ttl    time.Duration
}

// NewJWTSigner creates a signer. A zero ttl falls back to DefaultAccessTokenTTL.
func NewJWTSigner(secret []byte, issuer string, ttl time.Duration) *JWTSigner {
	if ttl <= 0 {
		ttl = DefaultAccessTokenTTL
	}
	return &JWTSigner{secret: secret, issuer: issuer, ttl: ttl}
}

// TTL returns the access token lifetime.
func (s *JWTSigner) TTL() time.Duration {
	return s.ttl
}

// Issue mints an access token for user. The session ID becomes the jti claim.
func (s *JWTSigner) Issue(user *domain.User, sessionID uuid.UUID, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.ttl)
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.issuer,
			ID:        sessionID.String(),
		},
		Email: user.Email,
		Name:  user.Name,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Verify validates an access token and returns the claims.
func (s *JWTSigner) Verify(tokenString string) (*AccessTokenClaims, error) {
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, errors.Join(domain.ErrInvalidToken, err)
		}
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	if _, err := claims.UserID(); err != nil {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}
