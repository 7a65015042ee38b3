package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// DefaultRefreshTokenExpiryDays is the session lifetime when none is configured.
const DefaultRefreshTokenExpiryDays = 7

const tokenTypeBearer = "Bearer"

// SessionStore persists refresh sessions.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	// GetActiveBySelector returns the non-revoked session for selector or
	// domain.ErrSessionNotFound.
	GetActiveBySelector(ctx context.Context, selector string) (*domain.Session, error)
	// Revoke sets revoked_at only while it is still null. A session that is
	// already revoked yields domain.ErrSessionNotFound.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// UserStore looks up live (non-deleted) users.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
}

// CredentialStore looks up password hashes.
type CredentialStore interface {
	GetByUserID(ctx context.Context, userID uuid.UUID) (*domain.UserPassword, error)
}

// SessionConfig holds session configuration.
type SessionConfig struct {
	// RefreshTokenExpiryDays is the lifetime of a refresh session in days.
	RefreshTokenExpiryDays int
	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

// SessionService is the session manager: login, refresh with rotation,
// logout and identity resolution over selector/validator refresh tokens.
type SessionService struct {
	config   SessionConfig
	sessions SessionStore
	users    UserStore
	creds    CredentialStore
	hasher   Hasher
	signer   TokenSigner
	logger   *slog.Logger
	metrics  *Metrics

	dummyOnce sync.Once
	dummyHash string
}

// NewSessionService creates a new session service.
func NewSessionService(
	config SessionConfig,
	sessions SessionStore,
	users UserStore,
	creds CredentialStore,
	hasher Hasher,
	signer TokenSigner,
	logger *slog.Logger,
	metrics *Metrics,
) *SessionService {
	if config.RefreshTokenExpiryDays <= 0 {
		config.RefreshTokenExpiryDays = DefaultRefreshTokenExpiryDays
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionService{
		config:   config,
		sessions: sessions,
		users:    users,
		creds:    creds,
		hasher:   hasher,
		signer:   signer,
		logger:   logger,
		metrics:  metrics,
	}
}

// SessionTTL returns the refresh session lifetime.
func (s *SessionService) SessionTTL() time.Duration {
	return time.Duration(s.config.RefreshTokenExpiryDays) * 24 * time.Hour
}

// CreateSession persists a new session for userID bound to fingerprint and
// returns the raw refresh token. The validator exists in plaintext only in
// the returned value.
func (s *SessionService) CreateSession(ctx context.Context, userID uuid.UUID, fingerprint string) (string, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return "", err
	}
	raw, _, err := s.createSession(ctx, userID, fingerprint, s.config.Now())
	return raw, err
}

func (s *SessionService) createSession(ctx context.Context, userID uuid.UUID, fingerprint string, now time.Time) (string, *domain.Session, error) {
	selector, err := GenerateToken(selectorBytes)
	if err != nil {
		return "", nil, err
	}
	validator, err := GenerateToken(validatorBytes)
	if err != nil {
		return "", nil, err
	}
	hashed, err := s.hasher.Hash(validator)
	if err != nil {
		return "", nil, fmt.Errorf("hash validator: %w", err)
	}

	session := &domain.Session{
		ID:          uuid.New(),
		UserID:      userID,
		StoredToken: domain.StoredTokenFor(selector, hashed),
		Fingerprint: fingerprint,
		ExpiresAt:   now.Add(s.SessionTTL()),
		CreatedAt:   now,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return "", nil, fmt.Errorf("create session: %w", err)
	}

	token := domain.RefreshToken{Selector: selector, Validator: validator}
	return token.String(), session, nil
}

// Login verifies email and password and opens a new session. Unknown
// emails, wrong passwords and inactive accounts all fail with
// domain.ErrInvalidCredentials.
func (s *SessionService) Login(ctx context.Context, email, password, fingerprint string) (result *domain.LoginResult, err error) {
	defer func() { s.record(ctx, "login", err) }()

	if err := ValidateFingerprint(fingerprint); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, domain.ErrUserNotFound) {
		s.burnVerify(password)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	cred, err := s.creds.GetByUserID(ctx, user.ID)
	if errors.Is(err, domain.ErrUserNotFound) {
		s.burnVerify(password)
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup credentials: %w", err)
	}

	if !s.hasher.Verify(password, cred.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !user.CanAuthenticate() {
		return nil, domain.ErrInvalidCredentials
	}

	now := s.config.Now()
	raw, session, err := s.createSession(ctx, user.ID, fingerprint, now)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokenPair(user, session.ID, raw, now)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID, "session_id", session.ID)
	return &domain.LoginResult{Tokens: tokens, User: user.Profile()}, nil
}

// RefreshSession rotates a refresh token: the presented session is revoked
// and a new one is created for the same user and fingerprint. Revocation is
// a compare-and-set, so of several concurrent refreshes with one token only
// the first succeeds.
func (s *SessionService) RefreshSession(ctx context.Context, rawRefreshToken, fingerprint string) (tokens *domain.TokenPair, err error) {
	defer func() { s.record(ctx, "refresh", err) }()

	session, err := s.verify(ctx, rawRefreshToken, fingerprint)
	if err != nil {
		return nil, err
	}
	user, err := s.sessionUser(ctx, session)
	if err != nil {
		return nil, err
	}

	now := s.config.Now()
	if err := s.sessions.Revoke(ctx, session.ID, now); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("revoke session: %w", err)
	}
	s.metrics.sessionsRevoked(1)

	raw, next, err := s.createSession(ctx, user.ID, session.Fingerprint, now)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "session rotated", "user_id", user.ID, "from_session_id", session.ID, "to_session_id", next.ID)
	return s.tokenPair(user, next.ID, raw, now)
}

// RevokeSession revokes the session behind rawRefreshToken after the same
// checks as RefreshSession. A nil error means the session was revoked.
func (s *SessionService) RevokeSession(ctx context.Context, rawRefreshToken, fingerprint string) (err error) {
	defer func() { s.record(ctx, "logout", err) }()

	session, err := s.verify(ctx, rawRefreshToken, fingerprint)
	if err != nil {
		return err
	}
	if err := s.sessions.Revoke(ctx, session.ID, s.config.Now()); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return err
		}
		return fmt.Errorf("revoke session: %w", err)
	}
	s.metrics.sessionsRevoked(1)

	s.logger.InfoContext(ctx, "session revoked", "user_id", session.UserID, "session_id", session.ID)
	return nil
}

// ResolveCurrentUser returns the profile of the session owner without
// touching the session.
func (s *SessionService) ResolveCurrentUser(ctx context.Context, rawRefreshToken, fingerprint string) (profile *domain.UserProfile, err error) {
	defer func() { s.record(ctx, "me", err) }()

	session, err := s.verify(ctx, rawRefreshToken, fingerprint)
	if err != nil {
		return nil, err
	}
	user, err := s.sessionUser(ctx, session)
	if err != nil {
		return nil, err
	}
	return user.Profile(), nil
}

// RevokeAllSessions revokes every active session of userID and returns how
// many were revoked.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.sessions.RevokeAllByUserID(ctx, userID, s.config.Now())
	s.record(ctx, "revoke_all", err)
	if err != nil {
		return 0, fmt.Errorf("revoke sessions: %w", err)
	}
	s.metrics.sessionsRevoked(n)
	if n > 0 {
		s.logger.InfoContext(ctx, "sessions revoked", "user_id", userID, "count", n)
	}
	return n, nil
}

// CheckAccount reports whether userID still names a live, active account.
// The access-token middleware calls it so that deactivation and deletion
// take effect before outstanding access tokens expire.
func (s *SessionService) CheckAccount(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.CanAuthenticate() {
		return domain.ErrInvalidToken
	}
	return nil
}

// CleanupExpired deletes sessions that expired or were revoked more than
// retention ago. Read paths enforce expiry on their own; this only bounds
// table growth.
func (s *SessionService) CleanupExpired(ctx context.Context, retention time.Duration) (int64, error) {
	n, err := s.sessions.DeleteExpired(ctx, s.config.Now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return n, nil
}

// verify runs the refresh-token checks in order: format, selector lookup,
// fingerprint, expiry, validator. It returns the first failure.
func (s *SessionService) verify(ctx context.Context, rawRefreshToken, fingerprint string) (*domain.Session, error) {
	if err := ValidateFingerprint(fingerprint); err != nil {
		return nil, err
	}
	token, err := domain.ParseRefreshToken(rawRefreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.sessions.GetActiveBySelector(ctx, token.Selector)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}

	// A mismatched fingerprint leaves the session alive.
	if !FingerprintsMatch(session.Fingerprint, fingerprint) {
		s.logger.DebugContext(ctx, "fingerprint mismatch", "session_id", session.ID)
		return nil, domain.ErrFingerprintMismatch
	}
	if session.IsExpired(s.config.Now()) {
		return nil, domain.ErrSessionExpired
	}

	hashed, err := session.HashedValidator()
	if err != nil {
		s.logger.ErrorContext(ctx, "stored session token is corrupt", "session_id", session.ID)
		return nil, fmt.Errorf("%w: %w", domain.ErrValidatorMismatch, err)
	}
	if !s.hasher.Verify(token.Validator, hashed) {
		s.logger.DebugContext(ctx, "validator mismatch", "session_id", session.ID)
		return nil, domain.ErrValidatorMismatch
	}
	return session, nil
}

// sessionUser loads the owner of a verified session. An owner that was
// deleted or deactivated makes the session unusable.
func (s *SessionService) sessionUser(ctx context.Context, session *domain.Session) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, session.UserID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if !user.CanAuthenticate() {
		return nil, domain.ErrSessionNotFound
	}
	return user, nil
}

func (s *SessionService) tokenPair(user *domain.User, sessionID uuid.UUID, rawRefreshToken string, now time.Time) (*domain.TokenPair, error) {
	access, expiresAt, err := s.signer.Issue(user, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: rawRefreshToken,
		TokenType:    tokenTypeBearer,
		ExpiresIn:    int(s.signer.TTL().Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// burnVerify spends the same hashing work as a real password check so
// response time does not reveal whether an email is registered.
func (s *SessionService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("proforma-dummy-password")
	})
	if s.dummyHash != "" {
		s.hasher.Verify(password, s.dummyHash)
	}
}

func (s *SessionService) record(ctx context.Context, operation string, err error) {
	s.metrics.observe(operation, err)
	switch {
	case err == nil:
	case domain.IsAuthFailure(err), errors.Is(err, domain.ErrFingerprintRequired):
		s.logger.WarnContext(ctx, "session operation rejected",
			"operation", operation, "reason", domain.FailureKind(err))
	default:
		s.logger.ErrorContext(ctx, "session operation failed",
			"operation", operation, "error", err)
	}
}
