package auth

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/tendant/proforma-api/internal/config"
	"github.com/tendant/proforma-api/pkg/domain"
)

// maxPasswordBytes caps input to the hasher.
const maxPasswordBytes = 128

// PasswordPolicy defines password complexity requirements.
type PasswordPolicy struct {
	MinLength        int
	RequireUppercase bool
	RequireLowercase bool
	RequireNumber    bool
	RequireSpecial   bool
}

// NewPasswordPolicy creates a PasswordPolicy from config.
func NewPasswordPolicy(cfg config.PasswordPolicyConfig) *PasswordPolicy {
	return &PasswordPolicy{
		MinLength:        cfg.MinLength,
		RequireUppercase: cfg.RequireUppercase,
		RequireLowercase: cfg.RequireLowercase,
		RequireNumber:    cfg.RequireNumber,
		RequireSpecial:   cfg.RequireSpecial,
	}
}

// ValidatePassword returns an error wrapping domain.ErrWeakPassword that
// names the first unmet rule.
func (p *PasswordPolicy) ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("%w: password is required", domain.ErrWeakPassword)
	}
	if len(password) > maxPasswordBytes {
		return fmt.Errorf("%w: password must be at most %d bytes long", domain.ErrWeakPassword, maxPasswordBytes)
	}
	if p.MinLength > 0 && len([]rune(password)) < p.MinLength {
		return fmt.Errorf("%w: password must be at least %d characters long", domain.ErrWeakPassword, p.MinLength)
	}

	var upper, lower, number, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			number = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}

	switch {
	case p.RequireUppercase && !upper:
		return fmt.Errorf("%w: password must contain an uppercase letter", domain.ErrWeakPassword)
	case p.RequireLowercase && !lower:
		return fmt.Errorf("%w: password must contain a lowercase letter", domain.ErrWeakPassword)
	case p.RequireNumber && !number:
		return fmt.Errorf("%w: password must contain a number", domain.ErrWeakPassword)
	case p.RequireSpecial && !special:
		return fmt.Errorf("%w: password must contain a special character", domain.ErrWeakPassword)
	}
	return nil
}

// Requirements returns a human-readable description of the policy.
func (p *PasswordPolicy) Requirements() string {
	var rules []string
	if p.MinLength > 0 {
		rules = append(rules, fmt.Sprintf("at least %d characters", p.MinLength))
	}
	if p.RequireUppercase {
		rules = append(rules, "an uppercase letter")
	}
	if p.RequireLowercase {
		rules = append(rules, "a lowercase letter")
	}
	if p.RequireNumber {
		rules = append(rules, "a number")
	}
	if p.RequireSpecial {
		rules = append(rules, "a special character")
	}
	if len(rules) == 0 {
		return "No password requirements"
	}
	return "Password must contain " + strings.Join(rules, ", ")
}
