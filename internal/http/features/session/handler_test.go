package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/internal/httputil"
	"github.com/tendant/proforma-api/pkg/domain"
)

const (
	goodToken = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	nextToken = "cccccccccccccccccccccccccccccccc.dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd"
)

// stubManager accepts goodToken with fingerprint "fp1" and fails otherwise.
type stubManager struct {
	err   error
	calls int
}

func (m *stubManager) check(raw, fp string) error {
	m.calls++
	if m.err != nil {
		return m.err
	}
	if raw != goodToken {
		return domain.ErrSessionNotFound
	}
	if fp != "fp1" {
		return domain.ErrFingerprintMismatch
	}
	return nil
}

var stubUser = &domain.UserProfile{ID: uuid.New(), Name: "Ana", Email: "ana@example.com", Active: true}

func (m *stubManager) Login(_ context.Context, email, password, fp string) (*domain.LoginResult, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if email != "ana@example.com" || password != "secret-pass" {
		return nil, domain.ErrInvalidCredentials
	}
	return &domain.LoginResult{
		Tokens: &domain.TokenPair{AccessToken: "jwt-1", RefreshToken: goodToken, TokenType: "Bearer", ExpiresIn: 900},
		User:   stubUser,
	}, nil
}

func (m *stubManager) RefreshSession(_ context.Context, raw, fp string) (*domain.TokenPair, error) {
	if err := m.check(raw, fp); err != nil {
		return nil, err
	}
	return &domain.TokenPair{AccessToken: "jwt-2", RefreshToken: nextToken, TokenType: "Bearer", ExpiresIn: 900}, nil
}

func (m *stubManager) RevokeSession(_ context.Context, raw, fp string) error {
	return m.check(raw, fp)
}

func (m *stubManager) ResolveCurrentUser(_ context.Context, raw, fp string) (*domain.UserProfile, error) {
	if err := m.check(raw, fp); err != nil {
		return nil, err
	}
	return stubUser, nil
}

func newTestHandler(m Manager) *Handler {
	h := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), m, httputil.NewCookieConfig("", true, 7*24*time.Hour))
	h.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

type request struct {
	body        string
	fingerprint string
	cookie      string
}

func (rq request) build(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(rq.body))
	req.Header.Set("Content-Type", "application/json")
	if rq.fingerprint != "" {
		req.Header.Set(httputil.FingerprintHeader, rq.fingerprint)
	}
	if rq.cookie != "" {
		req.AddCookie(&http.Cookie{Name: httputil.RefreshCookieName, Value: rq.cookie})
	}
	return req
}

func refreshCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == httputil.RefreshCookieName {
			return c
		}
	}
	return nil
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body httputil.ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	return body.Error
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name        string
		req         request
		managerErr  error
		wantStatus  int
		wantError   string
		wantCookie  bool
		wantManager bool
	}{
		{
			name:        "success",
			req:         request{body: `{"email":"ana@example.com","password":"secret-pass"}`, fingerprint: "fp1"},
			wantStatus:  http.StatusOK,
			wantCookie:  true,
			wantManager: true,
		},
		{
			name:       "missing fingerprint",
			req:        request{body: `{"email":"ana@example.com","password":"secret-pass"}`},
			wantStatus: http.StatusBadRequest,
			wantError:  "fingerprint header is required",
		},
		{
			name:       "invalid json",
			req:        request{body: `{invalid}`, fingerprint: "fp1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "unknown field",
			req:        request{body: `{"email":"a@b.co","password":"x","admin":true}`, fingerprint: "fp1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request body",
		},
		{
			name:       "missing password",
			req:        request{body: `{"email":"ana@example.com"}`, fingerprint: "fp1"},
			wantStatus: http.StatusBadRequest,
			wantError:  "email and password are required",
		},
		{
			name:        "wrong password",
			req:         request{body: `{"email":"ana@example.com","password":"nope"}`, fingerprint: "fp1"},
			wantStatus:  http.StatusUnauthorized,
			wantError:   httputil.MsgInvalidCredentials,
			wantManager: true,
		},
		{
			name:        "store failure",
			req:         request{body: `{"email":"ana@example.com","password":"secret-pass"}`, fingerprint: "fp1"},
			managerErr:  errors.New("connection refused"),
			wantStatus:  http.StatusInternalServerError,
			wantError:   "internal server error",
			wantManager: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &stubManager{err: tt.managerErr}
			rec := httptest.NewRecorder()
			newTestHandler(m).Login(rec, tt.req.build(http.MethodPost, "/v1/auth/login"))

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if (m.calls > 0) != tt.wantManager {
				t.Errorf("manager called = %v, want %v", m.calls > 0, tt.wantManager)
			}
			cookie := refreshCookie(rec)
			if (cookie != nil) != tt.wantCookie {
				t.Fatalf("cookie set = %v, want %v", cookie != nil, tt.wantCookie)
			}
			if tt.wantError != "" {
				if got := errorBody(t, rec); got != tt.wantError {
					t.Errorf("error = %q, want %q", got, tt.wantError)
				}
				return
			}

			if cookie.Value != goodToken || !cookie.HttpOnly || !cookie.Secure {
				t.Errorf("unexpected cookie %+v", cookie)
			}
			var resp TokenResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.AccessToken != "jwt-1" || resp.TokenType != "Bearer" || resp.ExpiresIn != 900 {
				t.Errorf("unexpected response %+v", resp)
			}
			if resp.User == nil || resp.User.Email != "ana@example.com" {
				t.Errorf("user = %+v", resp.User)
			}
		})
	}
}

func TestLogin_BodyNeverContainsRefreshToken(t *testing.T) {
	rec := httptest.NewRecorder()
	req := request{body: `{"email":"ana@example.com","password":"secret-pass"}`, fingerprint: "fp1"}
	newTestHandler(&stubManager{}).Login(rec, req.build(http.MethodPost, "/v1/auth/login"))

	if bytes.Contains(rec.Body.Bytes(), []byte(goodToken)) {
		t.Fatal("refresh token leaked into the response body")
	}
}

func TestCookieEndpoints(t *testing.T) {
	type call func(h *Handler, w http.ResponseWriter, r *http.Request)
	endpoints := []struct {
		name   string
		method string
		path   string
		call   call
		ok     int
	}{
		{"refresh", http.MethodPost, "/v1/auth/refresh", (*Handler).Refresh, http.StatusOK},
		{"logout", http.MethodPost, "/v1/auth/logout", (*Handler).Logout, http.StatusNoContent},
		{"me", http.MethodGet, "/v1/auth/me", (*Handler).Me, http.StatusOK},
	}

	cases := []struct {
		name       string
		req        request
		managerErr error
		wantStatus func(ok int) int
		wantError  string
	}{
		{
			name:       "valid",
			req:        request{fingerprint: "fp1", cookie: goodToken},
			wantStatus: func(ok int) int { return ok },
		},
		{
			name:       "missing fingerprint",
			req:        request{cookie: goodToken},
			wantStatus: func(int) int { return http.StatusBadRequest },
			wantError:  "fingerprint header is required",
		},
		{
			name:       "missing cookie",
			req:        request{fingerprint: "fp1"},
			wantStatus: func(int) int { return http.StatusUnauthorized },
			wantError:  httputil.MsgInvalidSession,
		},
		{
			name:       "unknown session",
			req:        request{fingerprint: "fp1", cookie: nextToken},
			wantStatus: func(int) int { return http.StatusUnauthorized },
			wantError:  httputil.MsgInvalidSession,
		},
		{
			name:       "other device",
			req:        request{fingerprint: "fp2", cookie: goodToken},
			wantStatus: func(int) int { return http.StatusUnauthorized },
			wantError:  httputil.MsgInvalidSession,
		},
		{
			name:       "wrapped auth failure",
			req:        request{fingerprint: "fp1", cookie: goodToken},
			managerErr: fmt.Errorf("%w: bad hash", domain.ErrValidatorMismatch),
			wantStatus: func(int) int { return http.StatusUnauthorized },
			wantError:  httputil.MsgInvalidSession,
		},
	}

	for _, ep := range endpoints {
		for _, tc := range cases {
			t.Run(ep.name+"/"+tc.name, func(t *testing.T) {
				rec := httptest.NewRecorder()
				ep.call(newTestHandler(&stubManager{err: tc.managerErr}), rec, tc.req.build(ep.method, ep.path))

				if want := tc.wantStatus(ep.ok); rec.Code != want {
					t.Fatalf("status = %d, want %d", rec.Code, want)
				}
				if tc.wantError != "" {
					if got := errorBody(t, rec); got != tc.wantError {
						t.Errorf("error = %q, want %q", got, tc.wantError)
					}
				}
			})
		}
	}
}

func TestRefresh_RotatesCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := request{fingerprint: "fp1", cookie: goodToken}
	newTestHandler(&stubManager{}).Refresh(rec, req.build(http.MethodPost, "/v1/auth/refresh"))

	cookie := refreshCookie(rec)
	if cookie == nil || cookie.Value != nextToken {
		t.Fatalf("cookie = %+v, want rotated token", cookie)
	}
	var resp TokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "jwt-2" || resp.User != nil {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestRefresh_ClearsCookieOnDeadSession(t *testing.T) {
	rec := httptest.NewRecorder()
	req := request{fingerprint: "fp1", cookie: nextToken}
	newTestHandler(&stubManager{}).Refresh(rec, req.build(http.MethodPost, "/v1/auth/refresh"))

	cookie := refreshCookie(rec)
	if cookie == nil || cookie.Value != "" || cookie.MaxAge >= 0 {
		t.Fatalf("cookie = %+v, want cleared", cookie)
	}
}

func TestRefresh_KeepsCookieOnFingerprintMismatch(t *testing.T) {
	rec := httptest.NewRecorder()
	req := request{fingerprint: "fp2", cookie: goodToken}
	newTestHandler(&stubManager{}).Refresh(rec, req.build(http.MethodPost, "/v1/auth/refresh"))

	if cookie := refreshCookie(rec); cookie != nil {
		t.Fatalf("cookie touched on fingerprint mismatch: %+v", cookie)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	rec := httptest.NewRecorder()
	req := request{fingerprint: "fp1", cookie: goodToken}
	newTestHandler(&stubManager{}).Logout(rec, req.build(http.MethodPost, "/v1/auth/logout"))

	cookie := refreshCookie(rec)
	if cookie == nil || cookie.Value != "" || !cookie.Expires.Before(time.Now()) {
		t.Fatalf("cookie = %+v, want cleared", cookie)
	}
}
