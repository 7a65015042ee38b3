package domain

import "errors"

// Authentication failures. Every one of these is reported to clients as the
// same opaque response; the distinction only exists for logs and metrics.
var (
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrMalformedToken      = errors.New("malformed refresh token")
	ErrSessionNotFound     = errors.New("session not found")
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
	ErrSessionExpired      = errors.New("session expired")
	ErrValidatorMismatch   = errors.New("refresh token validator mismatch")
	ErrInvalidToken        = errors.New("invalid token")
)

// Session and reset lifecycle errors
var (
	ErrFingerprintRequired   = errors.New("fingerprint is required")
	ErrCorruptStoredToken    = errors.New("stored session token is corrupt")
	ErrPasswordResetNotFound = errors.New("password reset not found")
	ErrPasswordResetExpired  = errors.New("password reset expired")
	ErrMailDelivery          = errors.New("mail delivery failed")
)

// Entity errors
var (
	ErrUserNotFound              = errors.New("user not found")
	ErrUserAlreadyExists         = errors.New("user already exists")
	ErrOrganizationNotFound      = errors.New("organization not found")
	ErrOrganizationAlreadyExists = errors.New("organization already exists")
	ErrClientNotFound            = errors.New("client not found")
	ErrClientAlreadyExists       = errors.New("client already exists")
	ErrConfigurationNotFound     = errors.New("configuration not found")

	ErrArticleNotFound               = errors.New("article not found")
	ErrArticleAlreadyExists          = errors.New("barcode already in use")
	ErrInventoryNotFound             = errors.New("inventory not found")
	ErrProformaNotFound              = errors.New("proforma not found")
	ErrProformaAlreadyExists         = errors.New("invoice number already in use")
	ErrPrintingTemplateNotFound      = errors.New("printing template not found")
	ErrPrintingTemplateAlreadyExists = errors.New("printing template already exists")
)

// Validation errors
var (
	ErrInvalidEmail = errors.New("invalid email address")
	ErrWeakPassword = errors.New("password does not meet requirements")
	ErrInvalidInput = errors.New("invalid input")
)

var authFailures = []error{
	ErrInvalidCredentials,
	ErrMalformedToken,
	ErrSessionNotFound,
	ErrFingerprintMismatch,
	ErrSessionExpired,
	ErrValidatorMismatch,
	ErrInvalidToken,
}

// IsAuthFailure reports whether err is one of the authentication failure kinds.
func IsAuthFailure(err error) bool {
	for _, target := range authFailures {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// FailureKind returns a short stable label for err, used in logs and metrics.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrMalformedToken):
		return "malformed_token"
	case errors.Is(err, ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, ErrFingerprintMismatch):
		return "fingerprint_mismatch"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, ErrValidatorMismatch):
		return "validator_mismatch"
	case errors.Is(err, ErrFingerprintRequired):
		return "fingerprint_required"
	case errors.Is(err, ErrPasswordResetNotFound):
		return "reset_not_found"
	case errors.Is(err, ErrPasswordResetExpired):
		return "reset_expired"
	case errors.Is(err, ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, ErrWeakPassword):
		return "weak_password"
	case errors.Is(err, ErrMailDelivery):
		return "mail_delivery"
	default:
		return "internal"
	}
}
