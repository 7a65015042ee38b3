package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

var (
	testSelector  = strings.Repeat("a1", SelectorLen/2)
	testValidator = strings.Repeat("f0", ValidatorLen/2)
)

func TestParseRefreshToken(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", testSelector + "." + testValidator, false},
		{"no separator", testSelector + testValidator, true},
		{"three parts", testSelector + "." + testValidator + ".x", true},
		{"empty", "", true},
		{"short selector", "abc." + testValidator, true},
		{"uppercase selector", strings.ToUpper(testSelector) + "." + testValidator, true},
		{"wildcard selector", strings.Repeat("%", SelectorLen) + "." + testValidator, true},
		{"short validator", testSelector + ".abc", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := ParseRefreshToken(tt.raw)
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedToken) {
					t.Fatalf("ParseRefreshToken(%q) error = %v, want ErrMalformedToken", tt.raw, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRefreshToken(%q) unexpected error: %v", tt.raw, err)
			}
			if tok.Selector != testSelector || tok.Validator != testValidator {
				t.Errorf("got %+v", tok)
			}
			if tok.String() != tt.raw {
				t.Errorf("String() = %q, want %q", tok.String(), tt.raw)
			}
		})
	}
}

func TestSession_HashedValidator(t *testing.T) {
	s := &Session{StoredToken: StoredTokenFor(testSelector, "$argon2id$v=19$hash")}
	h, err := s.HashedValidator()
	if err != nil {
		t.Fatalf("HashedValidator() error = %v", err)
	}
	if h != "$argon2id$v=19$hash" {
		t.Errorf("HashedValidator() = %q", h)
	}
	if !strings.HasPrefix(s.StoredToken, StoredTokenPrefix(testSelector)) {
		t.Errorf("stored token %q lacks selector prefix", s.StoredToken)
	}

	corrupt := &Session{StoredToken: testSelector}
	if _, err := corrupt.HashedValidator(); !errors.Is(err, ErrCorruptStoredToken) {
		t.Errorf("HashedValidator() on corrupt token error = %v", err)
	}
}

func TestSession_IsExpired(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name      string
		expiresAt time.Time
		revokedAt *time.Time
		want      bool
	}{
		{"live", now.Add(time.Hour), nil, false},
		{"expired", now.Add(-time.Second), nil, true},
		{"expires now", now, nil, true},
		{"revoked but unexpired", now.Add(time.Hour), &revoked, false},
		{"revoked and expired", now.Add(-time.Hour), &revoked, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Session{ID: uuid.New(), ExpiresAt: tt.expiresAt, RevokedAt: tt.revokedAt}
			if got := s.IsExpired(now); got != tt.want {
				t.Errorf("IsExpired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsAuthFailure(t *testing.T) {
	for _, err := range authFailures {
		if !IsAuthFailure(err) {
			t.Errorf("IsAuthFailure(%v) = false", err)
		}
	}
	if IsAuthFailure(ErrMailDelivery) {
		t.Error("ErrMailDelivery should not be an auth failure")
	}
	if FailureKind(ErrFingerprintMismatch) != "fingerprint_mismatch" {
		t.Errorf("FailureKind = %q", FailureKind(ErrFingerprintMismatch))
	}
}
