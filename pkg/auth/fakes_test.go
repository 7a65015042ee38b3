package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func newTestClock() *testClock {
	return &testClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// memSessionStore mirrors SessionsRepository, including the conditional revoke.
type memSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*domain.Session
	failNext error
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[uuid.UUID]*domain.Session)}
}

func (m *memSessionStore) Create(_ context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failNext; err != nil {
		m.failNext = nil
		return err
	}
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *memSessionStore) GetActiveBySelector(_ context.Context, selector string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prefix := domain.StoredTokenPrefix(selector)
	for _, s := range m.sessions {
		if s.RevokedAt == nil && strings.HasPrefix(s.StoredToken, prefix) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memSessionStore) Revoke(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok || s.RevokedAt != nil {
		return domain.ErrSessionNotFound
	}
	s.RevokedAt = &at
	return nil
}

func (m *memSessionStore) RevokeAllByUserID(_ context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, s := range m.sessions {
		if s.UserID == userID && s.RevokedAt == nil {
			s.RevokedAt = &at
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, s := range m.sessions {
		if s.ExpiresAt.Before(before) || (s.RevokedAt != nil && s.RevokedAt.Before(before)) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

func (m *memSessionStore) all() []domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}

func (m *memSessionStore) bySelector(selector string) *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if strings.HasPrefix(s.StoredToken, domain.StoredTokenPrefix(selector)) {
			cp := *s
			return &cp
		}
	}
	return nil
}

func (m *memSessionStore) update(id uuid.UUID, fn func(*domain.Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn(m.sessions[id])
}

// memUserStore holds users and their password hashes.
type memUserStore struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
	creds map[uuid.UUID]*domain.UserPassword
}

func newMemUserStore() *memUserStore {
	return &memUserStore{
		users: make(map[uuid.UUID]*domain.User),
		creds: make(map[uuid.UUID]*domain.UserPassword),
	}
}

func (m *memUserStore) add(user *domain.User, hash string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	m.creds[user.ID] = &domain.UserPassword{UserID: user.ID, PasswordHash: hash}
}

func (m *memUserStore) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok || u.IsDeleted() {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUserStore) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email && !u.IsDeleted() {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *memUserStore) GetByUserID(_ context.Context, userID uuid.UUID) (*domain.UserPassword, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.creds[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *memUserStore) passwordHash(userID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.creds[userID].PasswordHash
}

// memResetStore mirrors PasswordResetsRepository over a memUserStore.
type memResetStore struct {
	mu     sync.Mutex
	resets map[[2]string]*domain.PasswordReset
	users  *memUserStore
}

func newMemResetStore(users *memUserStore) *memResetStore {
	return &memResetStore{resets: make(map[[2]string]*domain.PasswordReset), users: users}
}

func (m *memResetStore) Create(_ context.Context, r *domain.PasswordReset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.resets[[2]string{r.Email, r.Token}] = &cp
	return nil
}

func (m *memResetStore) Get(_ context.Context, email, token string) (*domain.PasswordReset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.resets[[2]string{email, token}]
	if !ok {
		return nil, domain.ErrPasswordResetNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memResetStore) Delete(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{email, token}
	if _, ok := m.resets[key]; !ok {
		return domain.ErrPasswordResetNotFound
	}
	delete(m.resets, key)
	return nil
}

func (m *memResetStore) ConsumeWithPasswordChange(_ context.Context, email, token string, userID uuid.UUID, hash string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := [2]string{email, token}
	if _, ok := m.resets[key]; !ok {
		return domain.ErrPasswordResetNotFound
	}

	m.users.mu.Lock()
	defer m.users.mu.Unlock()
	cred, ok := m.users.creds[userID]
	if !ok {
		return errors.New("no credentials row")
	}
	delete(m.resets, key)
	cred.PasswordHash = hash
	cred.PasswordUpdatedAt = at
	return nil
}

func (m *memResetStore) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for key, r := range m.resets {
		if r.CreatedAt.Before(before) {
			delete(m.resets, key)
			n++
		}
	}
	return n, nil
}

func (m *memResetStore) forEmail(email string) []domain.PasswordReset {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PasswordReset
	for _, r := range m.resets {
		if r.Email == email {
			out = append(out, *r)
		}
	}
	return out
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

type sentMail struct {
	to, url string
}

func (f *fakeMailer) SendPasswordResetEmail(to, resetURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, sentMail{to: to, url: resetURL})
	return nil
}
