package auth

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/tendant/proforma-api/pkg/domain"
)

const maxEmailLength = 254 // RFC 5321

// NormalizeEmail normalizes an email address by lowercasing and trimming.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail checks that email is a bare RFC 5322 address with a dotted
// domain. The error wraps domain.ErrInvalidEmail.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email address is required", domain.ErrInvalidEmail)
	}
	if len(email) > maxEmailLength {
		return fmt.Errorf("%w: email address is too long", domain.ErrInvalidEmail)
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || addr.Name != "" {
		return domain.ErrInvalidEmail
	}
	at := strings.LastIndexByte(email, '@')
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return domain.ErrInvalidEmail
	}
	return nil
}

// CleanText trims whitespace and strips control characters other than
// newline and tab.
func CleanText(s string) string {
	s = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

// ValidateLength checks the character count of value. A zero bound is not
// enforced. The error wraps domain.ErrInvalidInput.
func ValidateLength(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if min > 0 && n < min {
		return fmt.Errorf("%w: %s must be at least %d characters long", domain.ErrInvalidInput, field, min)
	}
	if max > 0 && n > max {
		return fmt.Errorf("%w: %s must be at most %d characters long", domain.ErrInvalidInput, field, max)
	}
	return nil
}
