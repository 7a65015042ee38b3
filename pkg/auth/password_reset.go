package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/proforma-api/pkg/domain"
)

// DefaultPasswordResetTTL is how long a reset token stays usable.
const DefaultPasswordResetTTL = time.Hour

// PasswordResetStore persists single-use reset tokens.
type PasswordResetStore interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	Get(ctx context.Context, email, token string) (*domain.PasswordReset, error)
	Delete(ctx context.Context, email, token string) error
	// ConsumeWithPasswordChange deletes the reset and stores the new hash
	// atomically. It fails with domain.ErrPasswordResetNotFound when the
	// reset was already consumed.
	ConsumeWithPasswordChange(ctx context.Context, email, token string, userID uuid.UUID, hash string, at time.Time) error
	DeleteExpired(ctx context.Context, before time.Time) (int64, error)
}

// Mailer delivers password reset links.
type Mailer interface {
	SendPasswordResetEmail(to, resetURL string) error
}

// SessionRevoker revokes every session of a user.
type SessionRevoker interface {
	RevokeAllSessions(ctx context.Context, userID uuid.UUID) (int64, error)
}

// PasswordResetConfig holds password reset configuration.
type PasswordResetConfig struct {
	TTL time.Duration
	// ResetURL is the page that receives the email and token query parameters.
	ResetURL string
	Now      func() time.Time
}

// PasswordResetService issues and redeems password reset tokens.
type PasswordResetService struct {
	config   PasswordResetConfig
	resets   PasswordResetStore
	users    UserStore
	sessions SessionRevoker
	hasher   Hasher
	policy   *PasswordPolicy
	mailer   Mailer
	logger   *slog.Logger
	metrics  *Metrics
}

// NewPasswordResetService creates a new password reset service.
func NewPasswordResetService(
	config PasswordResetConfig,
	resets PasswordResetStore,
	users UserStore,
	sessions SessionRevoker,
	hasher Hasher,
	policy *PasswordPolicy,
	mailer Mailer,
	logger *slog.Logger,
	metrics *Metrics,
) *PasswordResetService {
	if config.TTL <= 0 {
		config.TTL = DefaultPasswordResetTTL
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if policy == nil {
		policy = &PasswordPolicy{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PasswordResetService{
		config:   config,
		resets:   resets,
		users:    users,
		sessions: sessions,
		hasher:   hasher,
		policy:   policy,
		mailer:   mailer,
		logger:   logger,
		metrics:  metrics,
	}
}

// RequestPasswordReset persists a reset token for email and mails it.
// It returns domain.ErrUserNotFound when no live account uses email; the
// HTTP layer hides that distinction. If delivery fails the token is removed
// again and the error wraps domain.ErrMailDelivery.
func (s *PasswordResetService) RequestPasswordReset(ctx context.Context, email string) (err error) {
	defer func() { s.metrics.observe("reset_request", err) }()

	email = NormalizeEmail(email)
	if err := ValidateEmail(email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.logger.InfoContext(ctx, "password reset requested for unknown email")
			return err
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	token, err := GenerateToken(resetTokenBytes)
	if err != nil {
		return err
	}
	reset := &domain.PasswordReset{Email: email, Token: token, CreatedAt: s.config.Now()}
	if err := s.resets.Create(ctx, reset); err != nil {
		return fmt.Errorf("store password reset: %w", err)
	}

	if err := s.mailer.SendPasswordResetEmail(email, s.resetURL(email, token)); err != nil {
		s.logger.ErrorContext(ctx, "failed to send password reset email", "user_id", user.ID, "error", err)
		if derr := s.resets.Delete(ctx, email, token); derr != nil && !errors.Is(derr, domain.ErrPasswordResetNotFound) {
			s.logger.ErrorContext(ctx, "failed to remove undelivered password reset", "user_id", user.ID, "error", derr)
		}
		return fmt.Errorf("%w: %w", domain.ErrMailDelivery, err)
	}

	s.logger.InfoContext(ctx, "password reset email sent", "user_id", user.ID)
	return nil
}

// ResetPassword redeems a reset token and replaces the user's password.
// Expired tokens are rejected but left in place for the cleanup job. On
// success every session of the user is revoked.
func (s *PasswordResetService) ResetPassword(ctx context.Context, email, token, newPassword string) (err error) {
	defer func() { s.metrics.observe("reset", err) }()

	email = NormalizeEmail(email)
	if err := s.policy.ValidatePassword(newPassword); err != nil {
		return err
	}

	reset, err := s.resets.Get(ctx, email, token)
	if err != nil {
		if errors.Is(err, domain.ErrPasswordResetNotFound) {
			return err
		}
		return fmt.Errorf("lookup password reset: %w", err)
	}
	now := s.config.Now()
	if reset.IsExpired(now, s.config.TTL) {
		return domain.ErrPasswordResetExpired
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("lookup user: %w", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.resets.ConsumeWithPasswordChange(ctx, email, token, user.ID, hash, now); err != nil {
		if errors.Is(err, domain.ErrPasswordResetNotFound) {
			return err
		}
		return fmt.Errorf("consume password reset: %w", err)
	}

	if s.sessions != nil {
		if _, err := s.sessions.RevokeAllSessions(ctx, user.ID); err != nil {
			s.logger.ErrorContext(ctx, "failed to revoke sessions after password reset", "user_id", user.ID, "error", err)
		}
	}

	s.logger.InfoContext(ctx, "password reset completed", "user_id", user.ID)
	return nil
}

// CleanupExpired deletes reset tokens older than the TTL.
func (s *PasswordResetService) CleanupExpired(ctx context.Context) (int64, error) {
	n, err := s.resets.DeleteExpired(ctx, s.config.Now().Add(-s.config.TTL))
	if err != nil {
		return 0, fmt.Errorf("delete expired password resets: %w", err)
	}
	return n, nil
}

func (s *PasswordResetService) resetURL(email, token string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", token)
	return s.config.ResetURL + "?" + q.Encode()
}
