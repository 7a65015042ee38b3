package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/auth"
	"github.com/tendant/proforma-api/pkg/domain"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func TestAuth(t *testing.T) {
	signer := auth.NewJWTSigner(testSecret, "proforma-test", 15*time.Minute)
	user := &domain.User{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Active: true}

	valid, _, err := signer.Issue(user, uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	expired, _, err := signer.Issue(user, uuid.New(), time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	otherKey, _, err := auth.NewJWTSigner([]byte("ffffffffffffffffffffffffffffffff"), "proforma-test", time.Minute).
		Issue(user, uuid.New(), time.Now())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var gotUserID uuid.UUID
	handler := Auth(signer, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserID(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"lowercase scheme", "bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty token", "Bearer ", http.StatusUnauthorized},
		{"expired token", "Bearer " + expired, http.StatusUnauthorized},
		{"foreign key", "Bearer " + otherKey, http.StatusUnauthorized},
		{"garbage", "Bearer not.a.jwt", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotUserID = uuid.Nil
			req := httptest.NewRequest("GET", "/v1/users", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Fatalf("got status %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			if gotUserID != user.ID {
				t.Errorf("user id = %v, want %v", gotUserID, user.ID)
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if _, ok := GetUserID(req.Context()); ok {
		t.Error("expected no user id in a bare context")
	}
}

type stubAccounts map[uuid.UUID]error

func (s stubAccounts) CheckAccount(_ context.Context, userID uuid.UUID) error {
	return s[userID]
}

func TestAuth_ChecksAccount(t *testing.T) {
	signer := auth.NewJWTSigner(testSecret, "proforma-test", 15*time.Minute)
	active := &domain.User{ID: uuid.New(), Email: "ana@example.com", Active: true}
	deactivated := &domain.User{ID: uuid.New(), Email: "bo@example.com", Active: true}
	deleted := &domain.User{ID: uuid.New(), Email: "cy@example.com", Active: true}
	broken := &domain.User{ID: uuid.New(), Email: "di@example.com", Active: true}

	accounts := stubAccounts{
		deactivated.ID: domain.ErrInvalidToken,
		deleted.ID:     domain.ErrUserNotFound,
		broken.ID:      errors.New("db down"),
	}
	handler := Auth(signer, accounts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		user       *domain.User
		wantStatus int
	}{
		{"active account", active, http.StatusOK},
		{"deactivated account", deactivated, http.StatusUnauthorized},
		{"deleted account", deleted, http.StatusUnauthorized},
		{"lookup failure", broken, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, _, err := signer.Issue(tt.user, uuid.New(), time.Now())
			if err != nil {
				t.Fatalf("Issue: %v", err)
			}
			req := httptest.NewRequest("GET", "/v1/organizations", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
		})
	}
}
