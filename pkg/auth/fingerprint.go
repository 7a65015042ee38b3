package auth

import (
	"crypto/subtle"

	"github.com/tendant/proforma-api/pkg/domain"
)

// maxFingerprintLen bounds the stored device fingerprint.
const maxFingerprintLen = 512

// ValidateFingerprint rejects fingerprints that are empty or too long to be
// a device fingerprint. Accepted values are stored and compared byte for
// byte; no normalization is applied.
func ValidateFingerprint(fp string) error {
	if fp == "" || len(fp) > maxFingerprintLen {
		return domain.ErrFingerprintRequired
	}
	return nil
}

// FingerprintsMatch compares two fingerprints exactly, in constant time.
func FingerprintsMatch(stored, presented string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(presented)) == 1
}
