package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// Random token sizes in bytes. Hex encoding doubles the length.
const (
	selectorBytes   = 16
	validatorBytes  = 32
	resetTokenBytes = 32
)

// GenerateToken returns n cryptographically random bytes as lowercase hex.
func GenerateToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate random token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
