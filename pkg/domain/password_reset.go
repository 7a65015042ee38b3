package domain

import "time"

// PasswordReset is a single-use reset token keyed by (Email, Token).
type PasswordReset struct {
	Email     string
	Token     string
	CreatedAt time.Time
}

// IsExpired reports whether the reset is older than ttl at now.
func (p *PasswordReset) IsExpired(now time.Time, ttl time.Duration) bool {
	return p.CreatedAt.Add(ttl).Before(now)
}
